// Package git wraps go-git with the operations the content aggregator needs:
//
//   - URL handling (credential extraction, display URLs, cache folder names)
//   - Repository handles for managed bare clones, local bare repositories and
//     local worktrees
//   - Shallow clone and fetch with authentication and progress reporting
//   - Branch, tag and HEAD resolution
//   - Tree and blob reads for collecting files from a reference
//   - Translation of transport failures into classified errors
package git
