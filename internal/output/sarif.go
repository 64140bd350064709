package output

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/chris-regnier/mallet/internal/sarif"
)

// FingerprintKey names the partial fingerprint mallet adds to each result.
const FingerprintKey = "malletFingerprint/v1"

// SARIFFormatter writes the SARIF 2.1.0 log prepared for code scanning
// uploads: rules carry a security-severity and results a fingerprint
// that survives lines moving.
type SARIFFormatter struct{}

func (f *SARIFFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("sarif formatter: SARIF log is required")
	}

	log := result.SARIFLog
	for i := range log.Runs {
		prepareRun(&log.Runs[i])
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif formatter: %w", err)
	}
	return append(data, '\n'), nil
}

func prepareRun(run *sarif.Run) {
	if run.Tool.Driver.InformationURI == "" {
		run.Tool.Driver.InformationURI = sarif.InformationURI
	}
	if len(run.Invocations) == 0 {
		wd, _ := os.Getwd()
		run.Invocations = []sarif.Invocation{{
			WorkingDirectory:    sarif.ArtifactLocation{URI: wd},
			ExecutionSuccessful: true,
		}}
	}

	for i := range run.Tool.Driver.Rules {
		rule := &run.Tool.Driver.Rules[i]
		if rule.Properties == nil {
			rule.Properties = make(map[string]interface{})
		}
		level := "warning"
		if rule.DefaultConfig != nil && rule.DefaultConfig.Level != "" {
			level = rule.DefaultConfig.Level
		}
		rule.Properties["security-severity"] = securitySeverity(level)
	}

	// Identical findings in one file are told apart by their order, so a
	// fingerprint does not change when unrelated lines are added above.
	seen := make(map[string]int)
	for i := range run.Results {
		r := &run.Results[i]
		if _, ok := r.PartialFingerprints[FingerprintKey]; ok {
			continue
		}
		base := r.RuleID + "\x00" + r.URI() + "\x00" + r.Message.Text
		n := seen[base]
		seen[base]++
		sum := sha256.Sum256([]byte(base + "\x00" + strconv.Itoa(n)))
		if r.PartialFingerprints == nil {
			r.PartialFingerprints = make(map[string]string)
		}
		r.PartialFingerprints[FingerprintKey] = hex.EncodeToString(sum[:16])
	}
}

// securitySeverity scores a level the way code scanning buckets them:
// high from 7.0, medium from 4.0, low below.
func securitySeverity(level string) string {
	switch level {
	case "error":
		return "8.0"
	case "warning":
		return "5.0"
	default:
		return "2.0"
	}
}
