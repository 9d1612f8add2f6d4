// Package configs manages Koru configuration files.
//
// Two levels of configuration exist:
//
//   - User config (server URL, account email) in the OS config directory,
//     e.g. ~/.config/koru/config.toml.
//   - Project config (workspace link, default environment) in the .koru
//     directory at the project root, committed alongside the code.
//
// Durable per-user data such as the session store lives in the XDG data
// directory, e.g. ~/.local/share/koru.
package configs
