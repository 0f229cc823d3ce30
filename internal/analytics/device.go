package analytics

import "strings"

type DeviceInfo struct {
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	DeviceType string `json:"deviceType"`
}

const unknown = "Unknown"

// ParseUserAgent classifies a User-Agent header. Order matters: Edge and
// Opera also claim Chrome, Chrome also claims Safari, Android claims Linux
// and iOS claims Mac OS X.
func ParseUserAgent(ua string) DeviceInfo {
	return DeviceInfo{
		Browser:    browser(ua),
		OS:         operatingSystem(ua),
		DeviceType: deviceType(ua),
	}
}

func browser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"), strings.Contains(ua, "FxiOS/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"), strings.Contains(ua, "CriOS/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	case strings.Contains(ua, "curl/"):
		return "curl"
	}
	return unknown
}

func operatingSystem(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "MacOS"
	case strings.Contains(ua, "Linux"), strings.Contains(ua, "X11"):
		return "Linux"
	}
	return unknown
}

func deviceType(ua string) string {
	switch {
	case strings.Contains(ua, "iPad"), strings.Contains(ua, "Tablet"),
		strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile"):
		return "tablet"
	case strings.Contains(ua, "Mobile"), strings.Contains(ua, "iPhone"):
		return "mobile"
	case ua == "":
		return unknown
	}
	return "desktop"
}
