// Package schema reads hosted model documents (owner, name, latest version and
// the embedded OpenAPI schema plus a default example) into an order-preserving
// tree and resolves the `$ref`/`allOf` indirections inside it. Documents are
// untrusted: missing or malformed optional pieces degrade to empty values and
// reference resolution never fails, it falls back to the unresolved node.
package schema
