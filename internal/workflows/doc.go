// Package workflows provides high-level orchestration for Backpack commands.
//
// Workflows coordinate the container, vault, memory and secrets packages to
// implement complete user-facing features. Each workflow handles a single
// command's business logic, independent of CLI concerns like flag parsing,
// spinners, and output formatting.
//
// # Available Workflows
//
//   - Init: creates agent.lock with credential placeholders and a personality
//   - Run: resolves credentials, asks for consent and launches the agent
//   - Embed: stores a credential value inside the encrypted credentials layer
//   - Rotate: re-encrypts every layer with a fresh salt or a new master key
//   - Status: summarizes a container without revealing values
//   - Doctor: checks configuration, master key, vault and container health
//   - KeyAdd, KeyList, KeyRemove: vault maintenance
//   - MemoryShow, MemoryUpdate: the memory layer from the command line
//
// # The Run State Machine
//
// Run moves through Loaded, Resolving, Consenting (interactive mode only,
// once per credential that needs approval), Assembled, Executing,
// Finalizing and Done. Any fatal error moves it to Failed before the agent
// program is started.
//
// Each credential is resolved in container order:
//
//  1. A non-empty value already in the parent environment is kept as is,
//     without consent.
//  2. A portable value embedded in the container.
//  3. The vault.
//
// Values from steps 2 and 3 need consent unless the run is non-interactive,
// which happens when the master key variable is set, --non-interactive is
// given, or one of the configured run.non_interactive_env variables is set.
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	result, err := workflows.Run(ctx, opts)
//	if errors.Is(err, kerrors.ErrDecryptionFailed) {
//	    // Suggest checking AGENT_MASTER_KEY
//	}
//
// Missing and declined credentials are not errors; they are listed in
// RunResult.
package workflows
