// Package secret resolves credential references in source configuration.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider), with an environment
//     provider built in (see EnvProvider)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:TUSHARE_TOKEN
//   - Inline use:  Bearer secretref:env:TUSHARE_TOKEN
package secret
