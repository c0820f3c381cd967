package grpc

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestServiceDesc_MatchesProto(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "..", "proto", LoyaltyServiceDesc.Metadata.(string)))
	require.NoError(t, err)

	require.Regexp(t, `(?m)^package loyalty\.v1;`, string(src))
	require.Regexp(t, `(?m)^service LoyaltyService \{`, string(src))

	var inProto []string
	for _, m := range regexp.MustCompile(`(?m)^\s*rpc (\w+)\(`).FindAllStringSubmatch(string(src), -1) {
		inProto = append(inProto, m[1])
	}

	var registered []string
	for _, m := range LoyaltyServiceDesc.Methods {
		registered = append(registered, m.MethodName)
	}

	if diff := cmp.Diff(registered, inProto); diff != "" {
		t.Errorf("proto and service desc disagree (-desc +proto):\n%s", diff)
	}
}
