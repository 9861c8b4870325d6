// Package inventory lists mesh assets available to the editor.
//
// Local assets come from a recursive directory scan. Scan results are cached
// per root in a SQLite database and reused until they are older than the
// staleness window (30 days by default) or a refresh is forced.
//
// Remote assets are resolved through a Fetcher and turned into a loadable
// mesh by a Converter. Both are interfaces: the download service and the mesh
// conversion toolchain live outside this module. CacheFetcher resolves assets
// that are already present in a local download cache and PassthroughConverter
// accepts formats the renderer loads directly.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - schema version tracked in PRAGMA user_version
package inventory
