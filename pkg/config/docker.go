package config

import (
	"net"
	"net/url"
	"os"
	"sync"
)

const dockerHostGateway = "host.docker.internal"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveURLForDocker points a loopback LLM endpoint (for example a local
// Ollama at http://localhost:11434/v1) at the Docker host gateway when the
// engine itself runs in a container. Other URLs are returned unchanged.
func ResolveURLForDocker(rawURL string) string {
	return rewriteLoopbackURL(rawURL, IsRunningInDocker())
}

func rewriteLoopbackURL(rawURL string, inDocker bool) string {
	if !inDocker || rawURL == "" {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	host := u.Hostname()
	if host != "localhost" && host != "127.0.0.1" {
		return rawURL
	}

	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(dockerHostGateway, port)
	} else {
		u.Host = dockerHostGateway
	}
	return u.String()
}

// EffectiveBaseURL returns BaseURL adjusted for container networking.
func (c *LLMConfig) EffectiveBaseURL() string {
	return ResolveURLForDocker(c.BaseURL)
}
