package mcpserver

const contractURI = "filedock://path-format"

// PathContract describes the path rules shared by every storage backend.
const PathContract = `# filedock Path Format Contract

Every path passed to list_folder, read_file and write_file follows these rules.

## Structure

- Paths are written with forward slashes: ` + "`" + `/docs/b.txt` + "`" + `.
  A leading slash is optional; ` + "`" + `/` + "`" + ` or an empty string is the root.
- Each segment is non-empty, is not ` + "`" + `.` + "`" + ` or ` + "`" + `..` + "`" + `,
  and contains no backslash or NUL.

## Backends

1. **Hierarchical** backends (memory, disk, remote) have folders. Non-root
   listings start with a ` + "`" + `..` + "`" + ` entry that only means "parent folder";
   it is never a stored name.
2. **Flat** backends (local) have no folders. Only the root can be listed, and
   file paths are exactly one segment.
3. Writes create or silently overwrite a file. The parent folder must already
   exist; write_file never creates folders.
4. Content is UTF-8 text, stored and returned verbatim.

## Errors

Tool errors start with a stable kind: ` + "`" + `access_denied` + "`" + `,
` + "`" + `not_found` + "`" + `, ` + "`" + `invalid_path` + "`" + `, ` + "`" + `write_failed` + "`" + `.
`
