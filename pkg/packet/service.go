package packet

// Cleartext service names
const (
	ServiceHTTP   = "HTTP"
	ServiceFTP    = "FTP"
	ServiceTelnet = "Telnet"
	ServiceSMTP   = "SMTP"
	ServicePOP3   = "POP3"
	ServiceIMAP   = "IMAP"
)

var cleartextPorts = map[int]string{
	21:   ServiceFTP,
	23:   ServiceTelnet,
	25:   ServiceSMTP,
	587:  ServiceSMTP,
	80:   ServiceHTTP,
	8080: ServiceHTTP,
	110:  ServicePOP3,
	143:  ServiceIMAP,
}

// wellKnownPorts names common services for port usage reports
var wellKnownPorts = map[int]string{
	20:   "FTP-DATA",
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	110:  "POP3",
	143:  "IMAP",
	443:  "HTTPS",
	445:  "SMB",
	3306: "MySQL",
	3389: "RDP",
	5432: "PostgreSQL",
	5900: "VNC",
	8080: "HTTP-Alt",
	8443: "HTTPS-Alt",
}

// Service returns the cleartext service the record belongs to, or ""
func (r *Record) Service() string {
	if r.Protocol == HTTP {
		return ServiceHTTP
	}
	if r.Protocol == TLS {
		return ""
	}
	if svc, ok := cleartextPorts[r.DstPort]; ok {
		return svc
	}
	if svc, ok := cleartextPorts[r.SrcPort]; ok {
		return svc
	}
	return ""
}

// PortName returns the well known service name for a port, or "Unknown"
func PortName(port int) string {
	if name, ok := wellKnownPorts[port]; ok {
		return name
	}
	return "Unknown"
}
