package usecase

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

//go:embed banks.yaml
var banksYAML []byte

type questionBanks struct {
	Adaptive  map[string][]string `yaml:"adaptive"`
	Interview map[string][]string `yaml:"interview"`
}

var banks = mustLoadBanks()

func mustLoadBanks() questionBanks {
	var b questionBanks
	if err := yaml.Unmarshal(banksYAML, &b); err != nil {
		panic(fmt.Sprintf("banks.yaml is malformed: %v", err))
	}
	return b
}

// adaptiveFallback returns the curated follow-up questions for a skill area,
// defaulting to the General bank for areas without a dedicated entry.
func adaptiveFallback(skillArea string) []string {
	if qs, ok := banks.Adaptive[skillArea]; ok {
		return qs
	}
	return banks.Adaptive["General"]
}

// interviewFallback returns the curated bank for an interview type,
// defaulting to the general bank for unknown types.
func interviewFallback(t domain.InterviewType) []string {
	if qs, ok := banks.Interview[string(t)]; ok {
		return qs
	}
	return banks.Interview[string(domain.InterviewGeneral)]
}
