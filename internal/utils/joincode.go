package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sony/sonyflake"
)

// joinCodeEpoch keeps generated IDs, and therefore codes, short.
var joinCodeEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// JoinCodeGenerator issues unique, URL-safe join codes for groups.
type JoinCodeGenerator struct {
	flake *sonyflake.Sonyflake
}

// NewJoinCodeGenerator builds a generator for the given machine ID. Instances
// sharing a database must use distinct machine IDs.
func NewJoinCodeGenerator(machineID uint16) (*JoinCodeGenerator, error) {
	flake := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: joinCodeEpoch,
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if flake == nil {
		return nil, errors.New("failed to initialise join code generator")
	}
	return &JoinCodeGenerator{flake: flake}, nil
}

// Next returns a fresh upper-case base36 code.
func (g *JoinCodeGenerator) Next() (string, error) {
	id, err := g.flake.NextID()
	if err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	return strings.ToUpper(strconv.FormatUint(id, 36)), nil
}

// InviteLink joins a base URL and a join code. It returns "" when no base is configured.
func InviteLink(baseURL, joinCode string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/join/" + joinCode
}
