package run

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/test/integration/shared"

	"github.com/99designs/keyring"
)

// TestHelperProcess is not a real test. It is the agent program started by
// the run tests: it prints the variables named in HELPER_PRINT and exits with
// HELPER_CODE.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("BACKPACK_WANT_HELPER_PROCESS") != "1" {
		return
	}
	for _, name := range strings.Split(os.Getenv("HELPER_PRINT"), ",") {
		if value, ok := os.LookupEnv(name); ok {
			fmt.Printf("%s=%s\n", name, value)
		} else {
			fmt.Printf("%s=<unset>\n", name)
		}
	}
	code, _ := strconv.Atoi(os.Getenv("HELPER_CODE"))
	os.Exit(code)
}

// agent sets up the environment for the helper agent and returns the run
// arguments that start it.
func agent(t *testing.T, code int, print ...string) []string {
	t.Setenv("BACKPACK_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_CODE", strconv.Itoa(code))
	t.Setenv("HELPER_PRINT", strings.Join(print, ","))
	return []string{"run", os.Args[0], "-test.run=^TestHelperProcess$"}
}

func TestRunCommand(t *testing.T) {
	t.Run("MissingCredentialInteractive", testMissingCredentialInteractive)
	t.Run("NonInteractiveInjectsFromVault", testNonInteractiveInjectsFromVault)
	t.Run("ParentEnvironmentWins", testParentEnvironmentWins)
	t.Run("EmptyParentValueWins", testEmptyParentValueWins)
	t.Run("DeclinedCredentialIsReported", testDeclinedCredentialIsReported)
	t.Run("ApprovedCredentialIsInjected", testApprovedCredentialIsInjected)
	t.Run("EmbeddedValueTravels", testEmbeddedValueTravels)
	t.Run("PersonalityIsExported", testPersonalityIsExported)
	t.Run("AgentUpdatesMemory", testAgentUpdatesMemory)
	t.Run("WrongKeyNeverStartsAgent", testWrongKeyNeverStartsAgent)
}

// testMissingCredentialInteractive: no vault entry, no parent value, master
// key variable absent. The agent still runs and its status is passed through.
func testMissingCredentialInteractive(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.UnsetEnv(t, "OPENAI_API_KEY")

	if output, code := shared.RunCLI(t, ring, "init", "--insecure-default-key", "-c", "OPENAI_API_KEY"); code != 0 {
		t.Fatalf("init exited %d: %s", code, output)
	}

	args := agent(t, 7, "OPENAI_API_KEY")
	args = append([]string{args[0], "--insecure-default-key"}, args[1:]...)
	output, code := shared.RunCLI(t, ring, args...)
	if code != 7 {
		t.Errorf("run exited %d, want the agent's 7: %s", code, output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY=<unset>") {
		t.Errorf("Agent should run without the credential: %s", output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY was not found") {
		t.Errorf("Expected a missing credential warning: %s", output)
	}
}

func testNonInteractiveInjectsFromVault(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.UnsetEnv(t, "OPENAI_API_KEY")
	shared.InitializeContainer(t, ring, "OPENAI_API_KEY")

	if err := ring.Set(keyring.Item{Key: "OPENAI_API_KEY", Data: []byte("sk-from-vault")}); err != nil {
		t.Fatal(err)
	}

	output, code := shared.RunCLI(t, ring, agent(t, 0, "OPENAI_API_KEY")...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY=sk-from-vault") {
		t.Errorf("Expected the vault value to be injected: %s", output)
	}
	if strings.Contains(output, "[y/N]") {
		t.Errorf("Non-interactive run prompted for consent: %s", output)
	}
}

func testParentEnvironmentWins(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.InitializeContainer(t, ring, "OPENAI_API_KEY")

	if err := ring.Set(keyring.Item{Key: "OPENAI_API_KEY", Data: []byte("sk-from-vault")}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-from-parent")

	output, code := shared.RunCLI(t, ring, agent(t, 0, "OPENAI_API_KEY")...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY=sk-from-parent") {
		t.Errorf("Expected the parent value to win: %s", output)
	}
}

func testEmptyParentValueWins(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.InitializeContainer(t, ring, "OPENAI_API_KEY")

	if err := ring.Set(keyring.Item{Key: "OPENAI_API_KEY", Data: []byte("sk-from-vault")}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "")

	output, code := shared.RunCLI(t, ring, agent(t, 0, "OPENAI_API_KEY")...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY=\n") {
		t.Errorf("Expected the empty parent value to be kept: %s", output)
	}
	if strings.Contains(output, "sk-from-vault") {
		t.Errorf("The vault value replaced the parent value: %s", output)
	}
}

// interactiveRun initializes a container under the insecure default key so
// runs stay interactive, and stores OPENAI_API_KEY in the vault.
func interactiveRun(t *testing.T) (*keyring.ArrayKeyring, []string) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.UnsetEnv(t, "OPENAI_API_KEY")

	if output, code := shared.RunCLI(t, ring, "init", "--insecure-default-key", "-c", "OPENAI_API_KEY"); code != 0 {
		t.Fatalf("init exited %d: %s", code, output)
	}
	if err := ring.Set(keyring.Item{Key: "OPENAI_API_KEY", Data: []byte("sk-from-vault")}); err != nil {
		t.Fatal(err)
	}

	args := agent(t, 0, "OPENAI_API_KEY")
	return ring, append([]string{args[0], "--insecure-default-key"}, args[1:]...)
}

func testDeclinedCredentialIsReported(t *testing.T) {
	ring, args := interactiveRun(t)

	output, code := shared.RunCLI(t, ring, args...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY=<unset>") {
		t.Errorf("Declined credential reached the agent: %s", output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY was declined") {
		t.Errorf("Expected a declined warning: %s", output)
	}
}

func testApprovedCredentialIsInjected(t *testing.T) {
	ring, args := interactiveRun(t)

	output, code := shared.RunCLIWithConsent(t, ring, "y\n", args...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	if !strings.Contains(output, "[y/N]") {
		t.Errorf("Expected a consent prompt: %s", output)
	}
	if !strings.Contains(output, "OPENAI_API_KEY=sk-from-vault") {
		t.Errorf("Approved credential was not injected: %s", output)
	}
}

func testEmbeddedValueTravels(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.InitializeContainer(t, ring, "GITHUB_TOKEN")

	t.Setenv("GITHUB_TOKEN", "ghp-embedded")
	if output, code := shared.RunCLI(t, ring, "embed", "GITHUB_TOKEN", "--from", "env"); code != 0 {
		t.Fatalf("embed exited %d: %s", code, output)
	}
	shared.UnsetEnv(t, "GITHUB_TOKEN")

	// A machine whose vault has never seen the credential.
	empty := keyring.NewArrayKeyring(nil)
	output, code := shared.RunCLI(t, empty, agent(t, 0, "GITHUB_TOKEN")...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	if !strings.Contains(output, "GITHUB_TOKEN=ghp-embedded") {
		t.Errorf("Expected the embedded value to be injected: %s", output)
	}
}

func testPersonalityIsExported(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.InitializeContainer(t, ring, "")
	t.Setenv("AGENT_TONE", "overridden by the container")

	output, code := shared.RunCLI(t, ring, agent(t, 0, "AGENT_SYSTEM_PROMPT", "AGENT_TONE", configs.ContainerPathEnv)...)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, output)
	}
	for _, want := range []string{
		"AGENT_SYSTEM_PROMPT=You are a test agent.",
		"AGENT_TONE=terse",
		configs.ContainerPathEnv + "=",
		configs.ContainerFileName,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in agent output: %s", want, output)
		}
	}
}

// testAgentUpdatesMemory drives the memory commands the way an agent would
// between runs, through the exported container path.
func testAgentUpdatesMemory(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.InitializeContainer(t, ring, "")

	for i := 0; i < 2; i++ {
		if output, code := shared.RunCLI(t, ring, "memory", "incr", "session_count"); code != 0 {
			t.Fatalf("memory incr exited %d: %s", code, output)
		}
	}
	output, code := shared.RunCLI(t, ring, "memory", "show")
	if code != 0 {
		t.Fatalf("memory show exited %d: %s", code, output)
	}
	if !strings.Contains(output, `"session_count": 2`) {
		t.Errorf("Expected session_count 2: %s", output)
	}
}

func testWrongKeyNeverStartsAgent(t *testing.T) {
	_, ring := shared.SetupTestEnvironment(t)
	shared.InitializeContainer(t, ring, "OPENAI_API_KEY")

	t.Setenv(configs.DefaultMasterKeyEnv, "the wrong key")
	output, code := shared.RunCLI(t, ring, agent(t, 0, "OPENAI_API_KEY")...)
	if code != 125 {
		t.Errorf("run exited %d, want 125: %s", code, output)
	}
	if strings.Contains(output, "OPENAI_API_KEY=") {
		t.Errorf("Agent started despite the decryption failure: %s", output)
	}
}
