package env

import (
	"os"
	"strconv"

	"github.com/denisbrodbeck/machineid"
)

// AppID keys the protected machine id.
const AppID = "sensorlink"

// MachineID retrieves the unique ID identifying the machine, hashed with
// AppID so the raw id is not exposed on the broker.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// ClientID is the default MQTT client id of a program role on this machine.
// It falls back to hostname and pid when the machine id is unavailable.
func ClientID(role string) string {
	if id, err := MachineID(); err == nil {
		if len(id) > 12 {
			id = id[:12]
		}
		return AppID + "-" + role + "-" + id
	}
	host, _ := os.Hostname()
	return AppID + "-" + role + "-" + host + "-" + strconv.Itoa(os.Getpid())
}
