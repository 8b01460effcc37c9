package workflows

import (
	"bufio"
	"fmt"
	"io"

	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/utils"
)

// PromptConsenter asks on a terminal, one credential at a time. End of input
// is a decline.
type PromptConsenter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConsenter reads answers from in and writes prompts to out.
func NewPromptConsenter(in io.Reader, out io.Writer) *PromptConsenter {
	return &PromptConsenter{in: bufio.NewReader(in), out: out}
}

// Consent implements Consenter.
func (p *PromptConsenter) Consent(name string, source CredentialSource) (bool, error) {
	prompt := fmt.Sprintf("%s Inject %s from %s into the agent environment?",
		ui.Hint(), ui.Credential.Sprint(name), source)
	return utils.Confirm(p.in, p.out, prompt)
}
