// Package status implements the JSON-RPC status protocol spoken between the
// connect tier and the game servers. Each game server runs a Server; the
// connect tier's browser polls them with a Client.
package status

// Status is the self-description a game server reports over the status RPC.
type Status struct {
	ID         uint16 `json:"id"`
	Host       string `json:"host"`
	Port       uint16 `json:"port"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"max_clients"`

	UptimeSeconds int64   `json:"uptime_seconds"`
	MemoryBytes   uint64  `json:"memory_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
}

// Load returns the server's occupancy as a fraction of capacity.
func (s *Status) Load() float64 {
	if s.MaxClients == 0 {
		return 1
	}
	return float64(s.Clients) / float64(s.MaxClients)
}
