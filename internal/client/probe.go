package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// NetworkClass is the network environment reported by the mirror site
// probe API.
type NetworkClass int

const (
	NetworkOffCampus  NetworkClass = 0
	NetworkCampusIPv4 NetworkClass = 1
	NetworkCampusIPv6 NetworkClass = 2
)

func (n NetworkClass) String() string {
	switch n {
	case NetworkOffCampus:
		return "off-campus"
	case NetworkCampusIPv4:
		return "campus IPv4"
	case NetworkCampusIPv6:
		return "campus IPv6"
	default:
		return fmt.Sprintf("unknown(%d)", int(n))
	}
}

const defaultProbeURL = "https://mirrors.zju.edu.cn/api/is_campus_network"

// CheckNetwork queries the campus-network probe API. Purely
// informational; callers treat failures as non-fatal.
func (c *Client) CheckNetwork(ctx context.Context) (NetworkClass, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, defaultProbeURL, nil)
	if err != nil {
		return NetworkOffCampus, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return NetworkOffCampus, fmt.Errorf("network probe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16))
	if err != nil {
		return NetworkOffCampus, fmt.Errorf("read probe response: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return NetworkOffCampus, fmt.Errorf("parse probe response %q: %w", string(body), err)
	}
	return NetworkClass(n), nil
}
