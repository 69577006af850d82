package autoscale

import "strings"

const containerPrefixFallback = "banking-"

// ServiceMap translates monitoring service names (alert labels) to
// docker container name prefixes. Services without an entry fall back
// to the "banking-" prefix convention.
type ServiceMap map[string]string

// ContainerPrefix returns the container name prefix for a service.
func (m ServiceMap) ContainerPrefix(service string) string {
	if prefix, ok := m[service]; ok {
		return prefix
	}
	return containerPrefixFallback + service
}

// Alias reverses the map: it returns the service name to use as the
// network alias for containers under the given prefix, so every scaled
// instance stays discoverable under the service's DNS name.
func (m ServiceMap) Alias(prefix string) string {
	for service, p := range m {
		if p == prefix {
			return service
		}
	}
	return strings.TrimPrefix(prefix, containerPrefixFallback)
}
