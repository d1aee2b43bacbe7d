package cli

const usageTemplate = `
Gratilog Client

Usage:
  gratilog [OPTIONS] COMMAND

Options:
  --version        Show version information
  --server URL     Server URL (default: http://localhost:8080)
  --db PATH        Path to local database (default: gratilog-client.db)

Commands:
  register                  Register new user
  login                     Login to server
  logout                    Logout from server
  status                    Show authentication status
  spaces                    List your spaces
  space create <name>       Create a space (add --shared for a group)
  space join <id>           Join a shared space
  post <space-id>           Post a photo entry to a space
  feed <space-id>           Show the photo feed of a space
  comment <photo-id>        Comment on a photo
  react <photo-id> <emoji>  React to a photo
  delete <entry-id>         Delete your entry
  chat <space-id>           Open the group chat (live)

Examples:
  gratilog register
  gratilog login
  gratilog space create "Family journal" --shared
  gratilog post b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5
  gratilog feed b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5
  gratilog chat b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5
  gratilog --server https://example.com login
`

const spacesListTemplate = `
=== Your Spaces ===

{{- if eq (len .) 0 }}
No spaces found.

Use 'gratilog space create <name>' to create your first journal.

{{ else }}
Found {{len .}} space(s):

{{- range . }}
- {{ .Name }}
   ID:   {{ .ID }}
   Kind: {{ .Kind }}

{{- end }}
Use 'gratilog feed <id>' to open a space.
{{- end }}
`

const feedTemplate = `
=== Feed ===

{{- if eq (len .) 0 }}
The feed is empty.

Use 'gratilog post <space-id>' to share your first gratitude photo.

{{ else }}
{{- range . }}
[{{ .CreatedAt.Format "2006-01-02 15:04" }}] {{ .AuthorName }}{{ if .IsPending }} (sending...){{ end }}
   {{ .Content }}
   {{- if .MediaURL }}
   Photo: {{ .MediaURL }}
   {{- end }}
   ID: {{ .ID }}

{{- end }}
{{- end }}
`

const commentsTemplate = `
{{- range . }}
[{{ .CreatedAt.Format "15:04" }}] {{ .AuthorName }}: {{ .Content }}
{{- end }}
`
