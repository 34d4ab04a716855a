package transcriber

import (
	"crypto/tls"
	"net/http"
)

func newHTTPClient(tlsSkipVerify bool) *http.Client {
	client := &http.Client{}
	if tlsSkipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // user-configured opt-in for self-signed certs
		}
	}
	return client
}
