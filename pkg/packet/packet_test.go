package packet

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocol(t *testing.T) {
	testCases := []struct {
		in  string
		out Protocol
		msg string
	}{
		{"TCP", TCP, "exact label"},
		{"udp", UDP, "lower case label"},
		{" Http ", HTTP, "padded label"},
		{"https", TLS, "alias for TLS"},
		{"ICMPv6", ICMP, "alias for ICMP"},
		{"SCTP", Other, "unknown label"},
		{"", "", "empty label"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.out, ParseProtocol(testCase.in), testCase.msg)
	}
}

func TestFlags(t *testing.T) {
	synAck := ParseFlags("SYN,ACK")
	assert.True(t, synAck.IsSYNACK())
	assert.False(t, synAck.IsSYNOnly())
	assert.False(t, synAck.IsPureACK())
	assert.Equal(t, "SYN,ACK", synAck.String())

	assert.True(t, ParseFlags("S").IsSYNOnly())
	assert.True(t, ParseFlags("ack psh").IsPureACK())
	assert.Equal(t, TCPFlags(0), ParseFlags("bogus"))
	assert.False(t, TCPFlags(0).Has(0))
}

func TestValidate(t *testing.T) {
	good := Record{Timestamp: 1, SrcIP: "10.0.0.1", DstIP: "10.0.0.2", Protocol: TCP, Length: 60}
	assert.Nil(t, good.Validate())

	testCases := []struct {
		mutate func(*Record)
		err    error
		msg    string
	}{
		{func(r *Record) { r.Timestamp = math.NaN() }, ErrBadTimestamp, "NaN timestamp"},
		{func(r *Record) { r.Timestamp = math.Inf(1) }, ErrBadTimestamp, "infinite timestamp"},
		{func(r *Record) { r.Timestamp = -1 }, ErrBadTimestamp, "negative timestamp"},
		{func(r *Record) { r.SrcIP = "" }, ErrNoSource, "missing source"},
		{func(r *Record) { r.DstIP = "" }, ErrNoDest, "missing destination"},
		{func(r *Record) { r.SrcIP = "workstation-7" }, ErrBadAddress, "host name as source"},
		{func(r *Record) { r.DstIP = "00:1b:44:11:3a:b7" }, ErrBadAddress, "MAC address as destination"},
		{func(r *Record) { r.Length = -5 }, ErrBadLength, "negative length"},
		{func(r *Record) { r.Protocol = "" }, ErrNoProtocol, "missing protocol"},
	}
	for _, testCase := range testCases {
		rec := good
		testCase.mutate(&rec)
		assert.Equal(t, testCase.err, rec.Validate(), testCase.msg)
	}

	badPort := good
	badPort.DstPort = 70000
	assert.NotNil(t, badPort.Validate())
}

func TestIsInitiator(t *testing.T) {
	testCases := []struct {
		rec Record
		out bool
		msg string
	}{
		{Record{Protocol: TCP, DstPort: 80, Flags: SYN}, true, "bare SYN"},
		{Record{Protocol: TCP, DstPort: 80, Flags: SYN | ACK}, false, "SYN+ACK reply"},
		{Record{Protocol: TCP, DstPort: 80, Flags: ACK}, false, "established traffic"},
		{Record{Protocol: TCP, DstPort: 80}, true, "no flags observed"},
		{Record{Protocol: HTTP, DstPort: 80}, true, "HTTP without flags"},
		{Record{Protocol: UDP, DstPort: 53}, true, "UDP datagram"},
		{Record{Protocol: DNS, SrcPort: 53, DstPort: 50000}, false, "DNS answer"},
		{Record{Protocol: UDP, SrcPort: 123, DstPort: 40000}, false, "NTP reply"},
		{Record{Protocol: UDP, SrcPort: 50000, DstPort: 40000}, true, "ephemeral to ephemeral"},
		{Record{Protocol: TCP, SrcPort: 443, DstPort: 50000, Flags: SYN}, true, "flags decide for TCP"},
		{Record{Protocol: ICMP}, false, "no destination port"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.out, testCase.rec.IsInitiator(), testCase.msg)
	}
}

func TestService(t *testing.T) {
	assert.Equal(t, ServiceHTTP, (&Record{Protocol: HTTP, DstPort: 8000}).Service())
	assert.Equal(t, ServiceFTP, (&Record{Protocol: TCP, DstPort: 21}).Service())
	assert.Equal(t, ServiceTelnet, (&Record{Protocol: TCP, SrcPort: 23, DstPort: 40000}).Service())
	assert.Equal(t, "", (&Record{Protocol: TLS, DstPort: 443}).Service())
	assert.Equal(t, "", (&Record{Protocol: TCP, DstPort: 22}).Service())
	assert.Equal(t, "SSH", PortName(22))
	assert.Equal(t, "Unknown", PortName(12345))
}

func TestRecordJSON(t *testing.T) {
	in := []byte(`{"timestamp":1.5,"src_ip":"10.0.0.1","dst_ip":"10.0.0.2","dst_port":80,
		"protocol":"http","length":120,"flags":"PSH,ACK","app":{"http_host":"example.com"}}`)
	var rec Record
	require.Nil(t, json.Unmarshal(in, &rec))
	assert.Equal(t, HTTP, rec.Protocol)
	assert.True(t, rec.Flags.Has(PSH|ACK))
	assert.Equal(t, "example.com", rec.App.HTTPHost)

	out, err := json.Marshal(rec)
	require.Nil(t, err)
	assert.Contains(t, string(out), `"flags":"ACK,PSH"`)
}
