package redis

import "fmt"

// Deployment closes the set of Redis topologies this backend can connect
// to: standalone, cluster, and sentinel (via a failover client that talks
// to the sentinel quorum for master discovery).
type Deployment struct {
	kind     deploymentKind
	url      string
	nodes    []string
	sentinels   []string
	masterName string
}

type deploymentKind int

const (
	kindStandalone deploymentKind = iota
	kindCluster
	kindSentinel
)

func Standalone(url string) Deployment { return Deployment{kind: kindStandalone, url: url} }

func Cluster(nodes []string) Deployment { return Deployment{kind: kindCluster, nodes: nodes} }

func Sentinel(sentinels []string, masterName string) Deployment {
	return Deployment{kind: kindSentinel, sentinels: sentinels, masterName: masterName}
}

// Config is validated via Validate before a connection may be built; a
// ValidConfig is the only argument Connect accepts.
type Config struct {
	Deployment Deployment
	KeyPrefix  string
	Password   string
}

func (c Config) Validate() (ValidConfig, error) {
	switch c.Deployment.kind {
	case kindStandalone:
		if c.Deployment.url == "" {
			return ValidConfig{}, fmt.Errorf("standalone deployment requires a url")
		}
	case kindCluster:
		if len(c.Deployment.nodes) == 0 {
			return ValidConfig{}, fmt.Errorf("cluster deployment requires at least one node")
		}
	case kindSentinel:
		if len(c.Deployment.sentinels) == 0 || c.Deployment.masterName == "" {
			return ValidConfig{}, fmt.Errorf("sentinel deployment requires sentinels and a master name")
		}
	default:
		return ValidConfig{}, fmt.Errorf("unknown deployment kind")
	}
	return ValidConfig{c: c}, nil
}

// ValidConfig is only constructible via Config.Validate.
type ValidConfig struct{ c Config }
