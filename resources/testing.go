package resources

import (
	"io/ioutil"
	"testing"

	"github.com/rayen-mansouri/packet-analyzer/config"
)

// InitTestResources creates a default testing resource bundle whose
// logger discards its output
func InitTestResources(t *testing.T) *Resources {
	conf, err := config.LoadTestingConfig()
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewResources(conf, ioutil.Discard)
	if err != nil {
		t.Fatal(err)
	}
	return r
}
