package seed

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/observability"
)

// NetworkFetcher retrieves one layer's bytes from a host named in a
// DownloadManifest. Expander never talks to a transport directly; it only
// ever asks a NetworkFetcher for the next range, so the progressive fetch
// loop (spec §4.7/§9) is transport-agnostic.
type NetworkFetcher interface {
	Fetch(ctx context.Context, host string, layer format.LayerEntry) ([]byte, error)
}

// HTTPFetcher fetches layers over HTTPS, pinning the server certificate to
// the SHA-256 of its SubjectPublicKeyInfo rather than trusting the system
// CA pool — a download manifest names the one host it trusts, so the
// client must refuse to be redirected onto a different one.
type HTTPFetcher struct {
	CertPin []byte
}

// NewHTTPFetcher builds an HTTPFetcher pinned to the certificate fingerprint
// carried in the manifest's TagCertPin record.
func NewHTTPFetcher(certPin []byte) *HTTPFetcher {
	return &HTTPFetcher{CertPin: certPin}
}

func (f *HTTPFetcher) client() *http.Client {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
			VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
				return f.verifyPin(rawCerts)
			},
		},
	}
	return &http.Client{Transport: tr}
}

func (f *HTTPFetcher) verifyPin(rawCerts [][]byte) error {
	if len(f.CertPin) == 0 {
		return observability.New(observability.CodeSeedHost, "rvqs: fetcher has no cert pin configured")
	}
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			continue
		}
		sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
		if bytesEqual(sum[:], f.CertPin) {
			return nil
		}
	}
	return observability.New(observability.CodeSeedHost, "rvqs: server certificate does not match manifest cert pin")
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Fetch retrieves [layer.Offset, layer.Offset+layer.Size) from host via a
// ranged GET.
func (f *HTTPFetcher) Fetch(ctx context.Context, host string, layer format.LayerEntry) ([]byte, error) {
	url := fmt.Sprintf("https://%s/layers/%d", host, layer.LayerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedHost, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", layer.Offset, layer.Offset+layer.Size-1))

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedHost, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, observability.New(observability.CodeSeedHost, fmt.Sprintf("rvqs: unexpected status %d fetching layer %d", resp.StatusCode, layer.LayerID))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedHost, err)
	}
	return body, nil
}

// AzureBlobFetcher fetches layers from a blob container, one blob per
// layer named by its LayerID. It is a NetworkFetcher alternative for hosts
// that serve the progressive fetch out of object storage instead of a
// plain HTTPS endpoint.
type AzureBlobFetcher struct {
	Container string
}

// NewAzureBlobFetcher builds a fetcher against the given container; host
// strings passed to Fetch are taken as the storage account service URL.
func NewAzureBlobFetcher(container string) *AzureBlobFetcher {
	return &AzureBlobFetcher{Container: container}
}

func (f *AzureBlobFetcher) Fetch(ctx context.Context, host string, layer format.LayerEntry) ([]byte, error) {
	client, err := azblob.NewClientWithNoCredential(host, nil)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedHost, err)
	}
	blobName := fmt.Sprintf("layer-%d", layer.LayerID)
	resp, err := client.DownloadStream(ctx, f.Container, blobName, nil)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedHost, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, observability.Wrap(observability.CodeSeedHost, err)
	}
	return body, nil
}
