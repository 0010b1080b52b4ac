//go:build !(linux && (arm || arm64))

package indicator

import "fmt"

func openGPIO(pin int) (driver, error) {
	return nil, fmt.Errorf("indicator: gpio not supported on this platform")
}
