package sarif

const (
	ToolName       = "mallet"
	InformationURI = "https://github.com/chris-regnier/mallet"
)

// Assembler provides a builder pattern for constructing SARIF logs with run metadata
type Assembler struct {
	results     []Result
	rules       []ReportingDescriptor
	version     string
	inputScope  string
	configHash  string
	invocations []Invocation
}

// NewAssembler creates a new Assembler with default values
func NewAssembler() *Assembler {
	return &Assembler{
		results: []Result{},
		rules:   []ReportingDescriptor{},
		version: "dev",
	}
}

// WithVersion sets the tool version reported in the driver
func (a *Assembler) WithVersion(version string) *Assembler {
	if version != "" {
		a.version = version
	}
	return a
}

// WithConfigHash records the digest of the configuration the results were produced under
func (a *Assembler) WithConfigHash(hash string) *Assembler {
	a.configHash = hash
	return a
}

// WithInvocation records the working directory and outcome of the run
func (a *Assembler) WithInvocation(workingDir string, successful bool) *Assembler {
	a.invocations = append(a.invocations, Invocation{
		ExecutionSuccessful: successful,
		WorkingDirectory:    ArtifactLocation{URI: workingDir},
	})
	return a
}

// AddResults adds SARIF results to the assembler
func (a *Assembler) AddResults(results []Result) *Assembler {
	a.results = append(a.results, results...)
	return a
}

// AddRules adds reporting descriptors (rules) to the assembler
func (a *Assembler) AddRules(rules []ReportingDescriptor) *Assembler {
	a.rules = append(a.rules, rules...)
	return a
}

// WithInputScope sets the input scope for the SARIF log
func (a *Assembler) WithInputScope(scope string) *Assembler {
	a.inputScope = scope
	return a
}

// Build constructs the final SARIF log with all configured metadata
func (a *Assembler) Build() *Log {
	log := Assemble(a.results, a.rules, a.inputScope)
	run := &log.Runs[0]
	run.Tool.Driver.Version = a.version
	run.Invocations = a.invocations
	if a.configHash != "" {
		if run.Properties == nil {
			run.Properties = make(map[string]interface{})
		}
		run.Properties["mallet/configHash"] = a.configHash
	}
	return log
}
