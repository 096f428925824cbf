package scheduler

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Condition — предикат окружения, проверяемый перед запуском job.
// Возвращает false, если окружение не готово к запуску.
type Condition func() bool

// ErrUnknownCondition возвращается для несуществующего имени условия.
type ErrUnknownCondition struct {
	Name string
}

func (e *ErrUnknownCondition) Error() string {
	return fmt.Sprintf("unknown schedule condition %q", e.Name)
}

// BuiltinCondition возвращает встроенное условие по имени.
// Имена: vpn_connected, ac_power, screen_unlocked.
func BuiltinCondition(name string) (Condition, error) {
	switch strings.ToLower(name) {
	case "vpn_connected":
		return VPNConnected, nil
	case "ac_power":
		return ACPowerConnected, nil
	case "screen_unlocked":
		return ScreenUnlocked, nil
	default:
		return nil, &ErrUnknownCondition{Name: name}
	}
}

// interfacesFn подменяется в тестах.
var interfacesFn = net.Interfaces

// VPNConnected — true, если есть поднятый туннельный интерфейс
// (tun/tap/wg/ppp).
func VPNConnected() bool {
	ifaces, err := interfacesFn()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		name := strings.ToLower(iface.Name)
		for _, prefix := range []string{"tun", "tap", "wg", "ppp"} {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

// powerSupplyDir подменяется в тестах.
var powerSupplyDir = "/sys/class/power_supply"

// ACPowerConnected — true, если машина питается от сети.
// Без информации о питании (десктоп без батареи) считается true.
func ACPowerConnected() bool {
	entries, err := os.ReadDir(powerSupplyDir)
	if err != nil || len(entries) == 0 {
		return true
	}

	seen := false
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(powerSupplyDir, e.Name(), "type"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) != "Mains" {
			continue
		}
		seen = true
		online, err := os.ReadFile(filepath.Join(powerSupplyDir, e.Name(), "online"))
		if err == nil && strings.TrimSpace(string(online)) == "1" {
			return true
		}
	}
	return !seen
}

// screenLockedFn подменяется в тестах. Достоверной кроссплатформенной
// проверки нет, по умолчанию экран считается разблокированным.
var screenLockedFn = func() bool { return false }

// ScreenUnlocked — true, если экран сессии не заблокирован.
func ScreenUnlocked() bool {
	return !screenLockedFn()
}
