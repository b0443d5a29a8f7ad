package collector

import (
	"errors"
	"io/fs"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// DotEnvFile is read from the working directory before a run.
const DotEnvFile = ".env"

// LoadDotEnv loads path into the process environment. Variables that are
// already set are kept. A missing file is not an error; the boolean reports
// whether a file was read.
func LoadDotEnv(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, err
	}
	return true, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} with the value of the environment variable
// NAME. Other dollar signs are left alone.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envRef.FindStringSubmatch(m)[1])
	})
}
