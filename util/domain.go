package util

import "strings"

//ContainsDomain checks if a collection of domains contains a host.
//Entries may be wildcards such as *.example.com, which also match
//example.com itself.
func ContainsDomain(domains []string, host string) bool {

	for _, entry := range domains {

		// check for wildcard
		if strings.Contains(entry, "*") {

			// trim asterisk from the wildcard domain
			wildcardDomain := strings.TrimPrefix(entry, "*")

			//This would match a.mydomain.com, b.mydomain.com etc.,
			if strings.HasSuffix(host, wildcardDomain) {
				return true
			}

			// check match of top domain of wildcard
			wildcardDomain = strings.TrimPrefix(wildcardDomain, ".")

			if host == wildcardDomain {
				return true
			}
		} else if host == entry {
			return true
		}

	}
	return false
}

//BaseDomain returns the last two labels of a name, e.g.
//"a.b.example.com." becomes "example.com"
func BaseDomain(name string) string {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	labels := strings.Split(name, ".")
	if len(labels) <= 2 {
		return name
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

//Subdomain returns everything left of BaseDomain, without the trailing dot
func Subdomain(name string) string {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	base := BaseDomain(name)
	if len(name) <= len(base) {
		return ""
	}
	return strings.TrimSuffix(name[:len(name)-len(base)], ".")
}
