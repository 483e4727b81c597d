// Package soap provides a thin SOAP 1.1 client shared by the SOAP carrier
// integrations. It builds envelopes with a structured XML builder so that
// free-text fields (insured names, addresses) are always escaped, POSTs them,
// and classifies the response into success or fault.
package soap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
const wsseNS = "http://schemas.xmlsoap.org/ws/2002/12/secext"

// Credentials are the optional WS-Security UsernameToken credentials.
type Credentials struct {
	Username string
	Password string
}

// CallInput describes one SOAP operation invocation. Body is an XML fragment
// (zero or more sibling elements) that gets wrapped in the operation element.
type CallInput struct {
	Operation  string
	Body       string
	SOAPAction string
}

// Result is the classified outcome of a SOAP call. Raw is returned unparsed;
// callers extract fields with their own mapping rules.
type Result struct {
	Success bool
	Raw     string
	Fault   string
}

// Client posts SOAP envelopes to a single endpoint. A zero endpoint is
// allowed; calls against it fail at the transport level, which the adapters
// guard against up front.
type Client struct {
	endpoint   string
	creds      Credentials
	mockMode   bool
	httpClient *http.Client
}

// Options tune client behavior.
type Options struct {
	// MockMode short-circuits every call with a synthetic envelope and no
	// network I/O.
	MockMode bool
	// Timeout bounds each call. Defaults to 15s when zero.
	Timeout time.Duration
}

// NewClient creates a SOAP client for one endpoint.
func NewClient(endpoint string, creds Credentials, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		endpoint:   endpoint,
		creds:      creds,
		mockMode:   opts.MockMode,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var faultPattern = regexp.MustCompile(`(?i)<faultstring[^>]*>([^<]+)</faultstring>`)

// Call performs one SOAP operation and classifies the response. A transport
// failure is returned as an error; HTTP and SOAP faults are reported through
// the Result so callers can keep the raw body.
func (c *Client) Call(ctx context.Context, input CallInput) (Result, error) {
	if c.mockMode {
		return c.mockResponse(input.Operation), nil
	}

	envelope, err := c.buildEnvelope(input.Operation, input.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build SOAP envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create SOAP request: %w", err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	if input.SOAPAction != "" {
		req.Header.Set("SOAPAction", input.SOAPAction)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("SOAP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read SOAP response: %w", err)
	}
	raw := string(body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Result{Success: false, Raw: raw, Fault: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	}

	if match := faultPattern.FindStringSubmatch(raw); match != nil {
		return Result{Success: false, Raw: raw, Fault: match[1]}, nil
	}

	return Result{Success: true, Raw: raw}, nil
}

func (c *Client) buildEnvelope(operation, innerBody string) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", envelopeNS)

	header := env.CreateElement("soapenv:Header")
	if c.creds.Username != "" && c.creds.Password != "" {
		security := header.CreateElement("wsse:Security")
		security.CreateAttr("xmlns:wsse", wsseNS)
		token := security.CreateElement("wsse:UsernameToken")
		token.CreateElement("wsse:Username").SetText(c.creds.Username)
		token.CreateElement("wsse:Password").SetText(c.creds.Password)
	}

	body := env.CreateElement("soapenv:Body")
	op := body.CreateElement(operation)

	if strings.TrimSpace(innerBody) != "" {
		fragment := etree.NewDocument()
		if err := fragment.ReadFromString("<fragment>" + innerBody + "</fragment>"); err != nil {
			return "", fmt.Errorf("invalid body fragment: %w", err)
		}
		for _, child := range fragment.Root().ChildElements() {
			op.AddChild(child.Copy())
		}
	}

	return doc.WriteToString()
}

func (c *Client) mockResponse(operation string) Result {
	doc := etree.NewDocument()
	mock := doc.CreateElement("mockResponse")
	mock.CreateElement("operation").SetText(operation)
	mock.CreateElement("timestamp").SetText(time.Now().UTC().Format(time.RFC3339))
	raw, _ := doc.WriteToString()
	return Result{Success: true, Raw: raw}
}
