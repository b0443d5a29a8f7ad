package browser

import (
	"fmt"
	"runtime"
)

// Supported drivers.
const (
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

// Endpoint returns the local CDP endpoint for a debugging port.
func Endpoint(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// ConnectError is returned when no browser answers on the debugging port.
// Its message tells the user how to start one.
type ConnectError struct {
	Port int
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot attach to a browser on port %d: %v\n\n%s", e.Port, e.Err, LaunchHint(e.Port, runtime.GOOS))
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// LaunchHint returns the command that starts Chrome with remote debugging on
// port for the given GOOS.
func LaunchHint(port int, goos string) string {
	var cmd string
	switch goos {
	case "windows":
		cmd = fmt.Sprintf(`"C:\Program Files\Google\Chrome\Application\chrome.exe" --remote-debugging-port=%d`, port)
	case "darwin":
		cmd = fmt.Sprintf(`/Applications/Google\ Chrome.app/Contents/MacOS/Google\ Chrome --remote-debugging-port=%d`, port)
	default:
		cmd = fmt.Sprintf("google-chrome --remote-debugging-port=%d", port)
	}
	return "Start Chrome with remote debugging enabled, log in to the target system, then run again:\n  " + cmd
}

// Connect attaches to the browser listening on port with the named driver.
func Connect(driver string, port int) (Session, error) {
	var (
		s   Session
		err error
	)
	switch driver {
	case "", DriverPlaywright:
		s, err = ConnectPlaywright(Endpoint(port))
	case DriverRod:
		s, err = ConnectRod(Endpoint(port))
	default:
		return nil, fmt.Errorf("unknown driver %q (want %s or %s)", driver, DriverPlaywright, DriverRod)
	}
	if err != nil {
		return nil, &ConnectError{Port: port, Err: err}
	}
	return s, nil
}
