// Package container implements the agent.lock codec.
//
// An agent container holds three independently encrypted layers:
//
//   - credentials: the ordered list of credential names an agent needs,
//     optionally with portable embedded values
//   - personality: the system prompt and tone handed to the agent
//   - memory: an open JSON object owned by the running agent
//
// # File Format
//
// The file is a JSON document:
//
//	{
//	  "format_version": 1,
//	  "id": "<uuid>",
//	  "salt": "<base64>",
//	  "kdf": {"name": "pbkdf2-sha256", "iterations": 100000},
//	  "layers": {
//	    "credentials": {"nonce": "...", "ciphertext": "...", "tag": "..."},
//	    "memory":      {...},
//	    "personality": {...}
//	  }
//	}
//
// Decode checks the version and shape before any cryptography runs, so a
// malformed file is reported as ErrFormat and never as ErrDecryptionFailed.
//
// # Usage
//
//	c, err := container.ReadFile(path)
//	u, err := container.Unlock(c, masterKey)
//	defer u.Close()
//	reqs, err := u.Credentials()
//	err = u.SetMemory(next)          // re-encrypts the memory layer only
//	err = container.WriteFile(path, u.Container())
package container
