package rtc

import (
	"testing"

	"github.com/dkeye/Relay/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

func TestICEServers(t *testing.T) {
	req := require.New(t)

	servers, err := ICEServers([]config.ICEServer{
		{URLs: []string{"stun:stun.example.org:3478"}},
		{URLs: []string{"turn:turn.example.org:3478?transport=udp"}, Username: "relay", Credential: "pw"},
	})

	req.NoError(err)
	req.Len(servers, 2)
	req.Empty(servers[0].Username)
	req.Equal("relay", servers[1].Username)
	req.Equal(webrtc.ICECredentialTypePassword, servers[1].CredentialType)
}

func TestICEServers_Default(t *testing.T) {
	servers, err := ICEServers(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultICEServers(), servers)
}

func TestICEServers_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		server config.ICEServer
	}{
		{"no urls", config.ICEServer{}},
		{"bad scheme", config.ICEServer{URLs: []string{"http://example.org"}}},
		{"turn without credential", config.ICEServer{URLs: []string{"turn:turn.example.org"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ICEServers([]config.ICEServer{tt.server})
			require.Error(t, err)
		})
	}
}
