package config

// Layer is one partial configuration source. Nil fields are absent and
// leave the value underneath untouched.
type Layer struct {
	Config    *FileLayer  `yaml:"config"`
	SearchDir *string     `yaml:"searchDir"`
	FileTodo  *string     `yaml:"file_todo"`
	Verbose   *bool       `yaml:"verbose"`
	Read      *ReadLayer  `yaml:"read"`
	Write     *WriteLayer `yaml:"write"`
}

// FileLayer is the partial form of FileConfig.
type FileLayer struct {
	FileIn  *string `yaml:"file_in"`
	FileOut *string `yaml:"file_out"`
}

// TagsLayer is the partial form of TagsConfig.
type TagsLayer struct {
	List *[]string `yaml:"list"`
}

// ContextLayer is the partial form of ContextConfig.
type ContextLayer struct {
	Enabled *bool `yaml:"enabled"`
	Lines   *int  `yaml:"lines"`
}

// ReadLayer is the partial form of ReadConfig.
type ReadLayer struct {
	Tags           *TagsLayer    `yaml:"tags"`
	SourceFiles    *[]string     `yaml:"SOURCE_FILES"`
	Exclude        *[]string     `yaml:"EXCLUDE"`
	MaxSearchLen   *int          `yaml:"MAX_SEARCH_LEN"`
	Context        *ContextLayer `yaml:"context"`
	Gitignore      *bool         `yaml:"gitignore"`
	SkipUnreadable *bool         `yaml:"skip_unreadable"`
}

// WriteLayer is the partial form of WriteConfig.
type WriteLayer struct {
	AttrSortOrder *[]string         `yaml:"attr_sort_order"`
	ItemFormat    *string           `yaml:"item_format"`
	Languages     map[string]string `yaml:"languages"`
	HTML          *string           `yaml:"html"`
}

// Apply merges l over c. Scalars and lists present in l replace the values
// in c; the languages map merges key by key.
func (c *Config) Apply(l *Layer) {
	if l == nil {
		return
	}
	if f := l.Config; f != nil {
		set(&c.Config.FileIn, f.FileIn)
		set(&c.Config.FileOut, f.FileOut)
	}
	set(&c.SearchDir, l.SearchDir)
	set(&c.FileTodo, l.FileTodo)
	set(&c.Verbose, l.Verbose)

	if r := l.Read; r != nil {
		if r.Tags != nil {
			setList(&c.Read.Tags.List, r.Tags.List)
		}
		setList(&c.Read.SourceFiles, r.SourceFiles)
		setList(&c.Read.Exclude, r.Exclude)
		set(&c.Read.MaxSearchLen, r.MaxSearchLen)
		if r.Context != nil {
			set(&c.Read.Context.Enabled, r.Context.Enabled)
			set(&c.Read.Context.Lines, r.Context.Lines)
		}
		set(&c.Read.Gitignore, r.Gitignore)
		set(&c.Read.SkipUnreadable, r.SkipUnreadable)
	}

	if w := l.Write; w != nil {
		setList(&c.Write.AttrSortOrder, w.AttrSortOrder)
		set(&c.Write.ItemFormat, w.ItemFormat)
		if len(w.Languages) > 0 && c.Write.Languages == nil {
			c.Write.Languages = make(map[string]string, len(w.Languages))
		}
		for ext, name := range w.Languages {
			c.Write.Languages[ext] = name
		}
		set(&c.Write.HTML, w.HTML)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src *[]string) {
	if src != nil {
		*dst = append([]string(nil), (*src)...)
	}
}
