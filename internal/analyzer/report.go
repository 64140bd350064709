package analyzer

import (
	"os"

	"github.com/chris-regnier/mallet/internal/sarif"
)

// Results converts the violations of every report to SARIF results.
// Reports that failed contribute nothing.
func Results(reports []FileReport) []sarif.Result {
	var out []sarif.Result
	for _, rep := range reports {
		if rep.Err != nil || rep.Lines == nil {
			continue
		}
		for _, v := range rep.Violations {
			out = append(out, sarif.NewResult(rep.Path, v, rep.Lines))
		}
	}
	return out
}

// Descriptors describes every known rule for the SARIF tool driver.
func (a *Analyzer) Descriptors() []sarif.ReportingDescriptor {
	infos := a.Rules()
	out := make([]sarif.ReportingDescriptor, len(infos))
	for i, info := range infos {
		out[i] = sarif.Descriptor(info.Description, info.Enabled)
	}
	return out
}

// SARIF assembles the log of a run over reports. inputScope names how the
// files were chosen, such as "files" or "diff".
func (a *Analyzer) SARIF(reports []FileReport, inputScope string) *sarif.Log {
	successful := true
	for _, rep := range reports {
		if rep.Err != nil {
			successful = false
			break
		}
	}
	wd, _ := os.Getwd()
	return sarif.NewAssembler().
		WithVersion(a.version).
		WithConfigHash(a.keyHash).
		WithInputScope(inputScope).
		WithInvocation(wd, successful).
		AddRules(a.Descriptors()).
		AddResults(Results(reports)).
		Build()
}
