package classifier

// DefaultLanguageByExtension maps lowercase file extensions to Markdown fence
// language tags. Extensions missing from the map get no tag.
var DefaultLanguageByExtension = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".jsx":   "jsx",
	".tsx":   "tsx",
	".java":  "java",
	".go":    "go",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".m":     "objectivec",
	".mm":    "objectivec",
	".sh":    "bash",
	".zsh":   "bash",
	".ps1":   "powershell",
	".sql":   "sql",
	".yml":   "yaml",
	".yaml":  "yaml",
	".json":  "json",
	".xml":   "xml",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".md":    "markdown",
	".toml":  "toml",
	".ini":   "ini",
	".cfg":   "ini",
	".proto": "protobuf",
	".txt":   "",
}

// defaultBinaryExtensions short-circuits binary detection for well-known
// binary formats without reading the file.
var defaultBinaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".webp": {},
	".pdf": {}, ".zip": {}, ".rar": {}, ".7z": {}, ".gz": {}, ".tar": {}, ".xz": {},
	".mp3": {}, ".wav": {}, ".ogg": {}, ".flac": {},
	".mp4": {}, ".mkv": {}, ".mov": {}, ".avi": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {},
	".dll": {}, ".so": {}, ".dylib": {}, ".exe": {}, ".bin": {}, ".class": {}, ".o": {},
}
