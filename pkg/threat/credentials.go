package threat

import (
	"fmt"
	"regexp"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

var (
	credentialQuery   = regexp.MustCompile(`(?i)[?&;](user(name)?|login|email|pass(wd|word)?|pwd|token|api_?key|session(id)?|auth)=[^&;\s]+`)
	credentialCommand = regexp.MustCompile(`(?im)^\s*(\w+\s+)?(USER|PASS|AUTH(\s+(PLAIN|LOGIN))?|LOGIN)\s+\S+`)
	credentialPayload = []*regexp.Regexp{
		regexp.MustCompile(`(?i)authorization:\s*(basic|bearer|digest)\s+\S+`),
		regexp.MustCompile(`(?i)(pass(wd|word)?|pwd)\s*[:=]\s*\S+`),
		regexp.MustCompile(`(?i)api_?key\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}`),
		regexp.MustCompile(`eyJ[A-Za-z0-9-_=]+\.[A-Za-z0-9-_=]+\.[A-Za-z0-9-_.+/=]*`),
	}
)

// credentialDetector flags cleartext application protocols and raises the
// severity when the metadata carries something that looks like a secret
type credentialDetector struct{}

func (credentialDetector) Name() string { return "CredentialExposure" }

func (credentialDetector) Enabled(conf *config.Config) bool { return conf.S.Credentials.Enabled }

func hasAppMeta(app *packet.AppMeta) bool {
	return app != nil && (app.HTTPHost != "" || app.HTTPURI != "" || app.HTTPMethod != "" ||
		app.HTTPAuthorization != "" || app.Payload != "" || app.DNSQuery != "")
}

// carriesCredentials reports whether any metadata field looks like a login
func carriesCredentials(app *packet.AppMeta) bool {
	if app.HTTPAuthorization != "" {
		return true
	}
	if credentialQuery.MatchString(app.HTTPURI) {
		return true
	}
	if credentialCommand.MatchString(app.Payload) {
		return true
	}
	for _, re := range credentialPayload {
		if re.MatchString(app.Payload) {
			return true
		}
	}
	return false
}

func (credentialDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	findings := []Finding{}

	type exposure struct {
		service     string
		packets     int64
		port        int
		first       float64
		host        string
		credentials bool
	}
	groups := make(map[serviceKey]*exposure)
	for i := range snap.Records {
		rec := &snap.Records[i]
		service := rec.Service()
		if service == "" || !conf.R.CredentialServices.Contains(service) || !hasAppMeta(rec.App) {
			continue
		}
		key := serviceKey{pair: data.HostPair{Src: rec.SrcIP, Dst: rec.DstIP}, service: service}
		e, ok := groups[key]
		if !ok {
			e = &exposure{service: service, port: rec.DstPort, first: rec.Timestamp}
			groups[key] = e
		}
		e.packets++
		if rec.Timestamp < e.first {
			e.first = rec.Timestamp
		}
		if e.host == "" && rec.App.HTTPHost != "" {
			e.host = rec.App.HTTPHost
		}
		if !e.credentials && carriesCredentials(rec.App) {
			e.credentials = true
		}
	}

	keys := make([]serviceKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sortServiceKeys(keys)

	for _, key := range keys {
		e := groups[key]
		f := Finding{
			Kind:        CredentialExposure,
			Severity:    Low,
			Source:      key.pair.Src,
			Destination: key.pair.Dst,
			Domain:      e.host,
			Port:        e.port,
			Count:       e.packets,
			Timestamp:   at(e.first),
			Description: fmt.Sprintf("Unencrypted %s traffic from %s to %s", e.service, key.pair.Src, key.pair.Dst),
		}
		if e.credentials {
			f.Severity = Medium
			f.Description = fmt.Sprintf("Credentials sent over cleartext %s from %s to %s", e.service, key.pair.Src, key.pair.Dst)
		}
		if e.host != "" {
			f.Description += fmt.Sprintf(" (host %s)", e.host)
		}
		findings = append(findings, f)
	}
	return findings
}
