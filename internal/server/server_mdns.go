package server

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/mdns"
)

const (
	mdnsService = "_reportviewer._tcp"
	apiBasePath = "/api/v1"
	// A single DNS TXT character-string holds at most 255 bytes.
	maxTXTRecord = 255
)

// advertisement is what the viewer announces on the local network: its
// instance name, port and a TXT description of the report tree it serves.
type advertisement struct {
	Instance string
	Port     int
	TXT      []string
}

// advertisement describes this server for discovery. ok is false when mDNS is
// disabled or addr has no usable port. The manifest is consulted only to list
// components; if it cannot be loaded the record is simply left out.
func (s *Server) advertisement(ctx context.Context, addr string) (advertisement, bool) {
	if strings.TrimSpace(envOrDefault("REPORTVIEWER_MDNS_ENABLE", "true")) == "false" {
		return advertisement{}, false
	}
	port, err := strconv.Atoi(listenPortFromAddr(addr))
	if err != nil || port <= 0 {
		return advertisement{}, false
	}

	host, _ := os.Hostname()
	if strings.TrimSpace(host) == "" {
		host = "reportviewer"
	}
	instance := strings.TrimSpace(envOrDefault("REPORTVIEWER_MDNS_INSTANCE", "reportviewer-"+host))
	if instance == "" {
		instance = "reportviewer"
	}

	txt := []string{
		txtRecord("name", "reportviewer"),
		txtRecord("version", currentVersion()),
		txtRecord("api", apiBasePath),
		txtRecord("source", redactSource(s.source)),
		txtRecord("cache", strconv.FormatBool(s.cache != nil)),
	}
	if m, err := s.loader.Manifest(ctx); err == nil {
		components := make([]string, 0, len(m))
		for c := range m {
			components = append(components, c)
		}
		sort.Strings(components)
		txt = append(txt, txtRecord("components", strings.Join(components, ",")))
	} else {
		slog.Debug("mdns advertisement without components", "error", err)
	}
	return advertisement{Instance: instance, Port: port, TXT: txt}, true
}

// txtRecord renders key=value, cut to fit one TXT character-string without
// splitting a UTF-8 sequence.
func txtRecord(key, value string) string {
	rec := key + "=" + value
	if len(rec) <= maxTXTRecord {
		return rec
	}
	cut := maxTXTRecord
	for cut > 0 && !utf8.RuneStart(rec[cut]) {
		cut--
	}
	return rec[:cut]
}

// redactSource drops credentials and query strings from an http(s) source.
// Directory sources are announced as given.
func redactSource(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// startMDNSAdvertiser announces ad until the returned func is called.
func startMDNSAdvertiser(ad advertisement) func() {
	service, err := mdns.NewMDNSService(ad.Instance, mdnsService, "", "", ad.Port, discoverAdvertiseIPs(), ad.TXT)
	if err != nil {
		slog.Error("mdns advertise service setup failed", "error", err)
		return func() {}
	}
	responder, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		slog.Error("mdns advertise start failed", "error", err)
		return func() {}
	}
	slog.Info("mdns advertising enabled", "service", mdnsService, "instance", ad.Instance, "port", ad.Port, "txt", ad.TXT)

	return func() {
		if err := responder.Shutdown(); err != nil {
			slog.Debug("mdns shutdown", "error", err)
		}
	}
}

func discoverAdvertiseIPs() []net.IP {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	return filterAdvertiseIPs(ifAddrs)
}

func filterAdvertiseIPs(addrs []net.Addr) []net.IP {
	if len(addrs) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		if addr == nil {
			continue
		}
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet == nil || ipNet.IP == nil {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsUnspecified() {
			continue
		}
		if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			continue
		}
		normalized := ip.To16()
		if normalized == nil {
			continue
		}
		key := normalized.String()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool {
		ai := out[i].To4() != nil
		aj := out[j].To4() != nil
		if ai != aj {
			return ai
		}
		return out[i].String() < out[j].String()
	})
	return out
}

func listenPortFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "80"
	}
	if strings.HasPrefix(addr, ":") {
		return strings.TrimPrefix(addr, ":")
	}
	if strings.Count(addr, ":") == 0 {
		return addr
	}
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return p
}
