package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Optional log level, default "info"
loglevel = "info"

# Optional zone used to pick the upload server, default "eu". The first server
# returned by the discovery endpoint in this zone is used.
zone = "eu"

# Optional discovery endpoint base URL, default "https://api.gofile.io"
api_url = "https://api.gofile.io"

# Optional upload endpoint, default "https://{server}.gofile.io/uploadFile".
# {server} is replaced by the selected server name.
upload_url = "https://{server}.gofile.io/uploadFile"

# Optional discovery timeout in secs, default 10.
timeout = 10

# Optional bind address for 'gofileup serve', default "127.0.0.1".
# A non-loopback address requires username and password.
bind_address = "127.0.0.1"

# Optional TCP port for 'gofileup serve', default 8085
port = 8085

# Optional. When both are set, 'gofileup serve' requires HTTP basic auth.
# username = "myusername"
# password = "mypassword"

[upload]
# Optional extra form fields sent with every upload
# extra_fields = { folderId = "my-folder-id" }
`

// GenerateConfig writes a default configuration file, backing up any existing one
func GenerateConfig(configPath string) error {
	fmt.Printf("Generating config %s\n", configPath)

	// Check if config file already exists and back it up
	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".bak"
		fmt.Printf("Backing up config %s\n", configPath)
		if err := os.Rename(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fmt.Printf("Writing %s\n", configPath)
	if err := os.WriteFile(configPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
