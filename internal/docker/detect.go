package docker

import (
	"EasyDockerDeploy/internal/system"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DetectHost returns the daemon address to connect to, in the form accepted
// by client.WithHost. DOCKER_HOST wins, then the current docker context,
// then the first responsive well known socket.
func DetectHost() string {
	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		return dockerHost
	}

	if runtime.GOOS == "windows" {
		return "npipe:////./pipe/docker_engine"
	}

	if contextSocket := detectContextSocket(userHome()); contextSocket != "" {
		return "unix://" + contextSocket
	}

	candidates := potentialSockets()
	for _, socket := range candidates {
		if isSocketActive(socket) {
			return "unix://" + socket
		}
	}
	// Nothing answers: prefer one that at least exists
	for _, socket := range candidates {
		if fileExists(socket) {
			return "unix://" + socket
		}
	}
	return "unix:///var/run/docker.sock"
}

func potentialSockets() []string {
	sockets := []string{
		"/var/run/docker.sock",
		"/run/docker.sock",
	}
	// Rootless daemons
	if xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntimeDir != "" {
		sockets = append(sockets, filepath.Join(xdgRuntimeDir, "docker.sock"))
	}
	puid, _ := system.GetIDs()
	sockets = append(sockets, fmt.Sprintf("/run/user/%d/docker.sock", puid))
	if home := userHome(); home != "" {
		sockets = append(sockets, filepath.Join(home, ".docker", "run", "docker.sock"))
	}
	return sockets
}

func userHome() string {
	home, _ := os.UserHomeDir()
	return home
}

// detectContextSocket reads the current context from ~/.docker/config.json and
// returns its unix socket when that socket answers.
func detectContextSocket(home string) string {
	if home == "" {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(home, ".docker", "config.json"))
	if err != nil {
		return ""
	}

	var config struct {
		CurrentContext string `json:"currentContext"`
	}
	if err := json.Unmarshal(data, &config); err != nil || config.CurrentContext == "" || config.CurrentContext == "default" {
		return ""
	}

	// Context metadata lives in a folder named after the sha256 of the context name
	hash := sha256.Sum256([]byte(config.CurrentContext))
	metaPath := filepath.Join(home, ".docker", "contexts", "meta", hex.EncodeToString(hash[:]), "meta.json")

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return ""
	}

	var meta struct {
		Endpoints struct {
			Docker struct {
				Host string `json:"Host"`
			} `json:"docker"`
		} `json:"Endpoints"`
	}
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return ""
	}

	socket, ok := strings.CutPrefix(meta.Endpoints.Docker.Host, "unix://")
	if ok && isSocketActive(socket) {
		return socket
	}
	return ""
}

func isSocketActive(path string) bool {
	if !fileExists(path) {
		return false
	}
	conn, err := net.DialTimeout("unix", path, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
