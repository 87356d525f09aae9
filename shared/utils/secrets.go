package utils

import (
	"fmt"
	"os"
	"strings"
)

// secretsDir путь Docker Secrets.
var secretsDir = "/run/secrets"

// ReadSecret читает секрет из файла Docker Secrets, а если файла нет - из переменной окружения envKey.
func ReadSecret(secretName, envKey string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}
	if envKey != "" {
		if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("failed to read secret %s: file %s: %w", secretName, filePath, err)
}
