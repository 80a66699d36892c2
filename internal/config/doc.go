// Package config resolves tabledesk settings from flags, TABLEDESK_*
// environment variables, .env files and tabledesk.yaml.
//
// Search paths for tabledesk.yaml: the working directory, $HOME and
// $HOME/.config/tabledesk. Without db_path the database lives in
// all_databas/tabledesk.db under the working directory.
package config
