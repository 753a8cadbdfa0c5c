package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var contentValidator = newContentValidator()

func newContentValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ThreadContent template-specific body of a thread. The set of
// implementations is closed; see NewThreadContent.
type ThreadContent interface {
	Template() Template
	SetThreadID(id string)
	applyDefaults()
	checkRules() *FieldError
}

// NewThreadContent returns an empty content value for the template
func NewThreadContent(t Template) (ThreadContent, error) {
	switch t {
	case TemplateMidia:
		return &MidiaContent{}, nil
	case TemplateJogos:
		return &JogosContent{}, nil
	case TemplateSoftware:
		return &SoftwareContent{}, nil
	case TemplateTorrent:
		return &TorrentContent{}, nil
	case TemplatePostagem:
		return &PostagemContent{}, nil
	}
	return nil, fmt.Errorf("unknown template %q", t)
}

// DecodeThreadContent decodes raw JSON into the template's struct and validates it
func DecodeThreadContent(t Template, raw json.RawMessage) (ThreadContent, error) {
	content, err := NewThreadContent(t)
	if err != nil {
		return nil, err
	}
	if err := MergeThreadContent(content, raw); err != nil {
		return nil, err
	}
	return content, nil
}

// MergeThreadContent overlays raw JSON onto an existing content value and
// re-validates the result, so partial updates keep untouched fields.
func MergeThreadContent(content ThreadContent, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return &ContentValidationError{Template: content.Template(), Fields: []FieldError{{Field: "content", Message: "conteúdo é obrigatório"}}}
	}
	if err := json.Unmarshal(raw, content); err != nil {
		return &ContentValidationError{Template: content.Template(), Fields: []FieldError{{Field: "content", Message: "JSON inválido: " + err.Error()}}}
	}
	return ValidateThreadContent(content)
}

// ValidateThreadContent runs field tags plus the template's cross-field rules
func ValidateThreadContent(content ThreadContent) error {
	content.applyDefaults()

	var fields []FieldError
	if err := contentValidator.Struct(content); err != nil {
		var verrs validator.ValidationErrors
		if !asValidationErrors(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}
	if fe := content.checkRules(); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		return &ContentValidationError{Template: content.Template(), Fields: fields}
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// FieldErrorsFrom translates validator errors into API field errors
func FieldErrorsFrom(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "url":
		return "deve ser uma URL válida"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "informe pelo menos " + fe.Param() + " item(ns)"
		}
		if fe.Kind() == reflect.String {
			return "deve ter pelo menos " + fe.Param() + " caracteres"
		}
		return "valor mínimo " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "deve ter no máximo " + fe.Param() + " caracteres"
		}
		return "valor máximo " + fe.Param()
	}
	return "valor inválido (" + fe.Tag() + ")"
}

// FieldError single invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ContentValidationError content did not match its template
type ContentValidationError struct {
	Template Template
	Fields   []FieldError
}

func (e *ContentValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid %s content: %s", e.Template, strings.Join(parts, "; "))
}

// MidiaContent movies, series and anime
type MidiaContent struct {
	ThreadID      string   `gorm:"column:thread_id;type:varchar(36);primaryKey" json:"-"`
	NomeConteudo  string   `gorm:"column:nome_conteudo;type:varchar(200)" json:"nome_conteudo" validate:"required,max=200"`
	PosterURL     *string  `gorm:"column:poster_url;type:varchar(500)" json:"poster_url" validate:"omitempty,url"`
	Genero        []string `gorm:"column:genero;type:text;serializer:json" json:"genero" validate:"min=1"`
	TrailerURL    *string  `gorm:"column:trailer_url;type:varchar(500)" json:"trailer_url" validate:"omitempty,url"`
	Elenco        []string `gorm:"column:elenco;type:text;serializer:json" json:"elenco"`
	Sinopse       string   `gorm:"column:sinopse;type:text" json:"sinopse" validate:"min=10"`
	Notas         *string  `gorm:"column:notas;type:text" json:"notas"`
	Tamanho       string   `gorm:"column:tamanho;type:varchar(50)" json:"tamanho" validate:"required"`
	Formato       []string `gorm:"column:formato;type:text;serializer:json" json:"formato" validate:"min=1"`
	LinkDownload  string   `gorm:"column:link_download;type:varchar(1000)" json:"link_download" validate:"required,url"`
	Idiomas       []string `gorm:"column:idiomas;type:text;serializer:json" json:"idiomas" validate:"min=1"`
	Qualidade     *string  `gorm:"column:qualidade;type:varchar(50)" json:"qualidade"`
	Ano           *int     `gorm:"column:ano" json:"ano" validate:"omitempty,min=1800,max=2100"`
	Duracao       *string  `gorm:"column:duracao;type:varchar(50)" json:"duracao"`
	Classificacao *string  `gorm:"column:classificacao;type:varchar(20)" json:"classificacao" validate:"omitempty,max=20"`
	TMDBID        *string  `gorm:"column:tmdb_id;type:varchar(50)" json:"tmdb_id" validate:"omitempty,max=50"`
}

func (MidiaContent) TableName() string          { return "thread_midia_content" }
func (*MidiaContent) Template() Template        { return TemplateMidia }
func (c *MidiaContent) SetThreadID(id string)   { c.ThreadID = id }
func (c *MidiaContent) checkRules() *FieldError { return nil }

func (c *MidiaContent) applyDefaults() {
	if c.Elenco == nil {
		c.Elenco = []string{}
	}
}

// JogosContent games
type JogosContent struct {
	ThreadID           string   `gorm:"column:thread_id;type:varchar(36);primaryKey" json:"-"`
	Nome               string   `gorm:"column:nome;type:varchar(200)" json:"nome" validate:"required,max=200"`
	Estilo             []string `gorm:"column:estilo;type:text;serializer:json" json:"estilo" validate:"min=1"`
	PosterURL          *string  `gorm:"column:poster_url;type:varchar(500)" json:"poster_url" validate:"omitempty,url"`
	Ano                *int     `gorm:"column:ano" json:"ano" validate:"omitempty,min=1970,max=2100"`
	SistemaOperacional []string `gorm:"column:sistema_operacional;type:text;serializer:json" json:"sistema_operacional" validate:"min=1"`
	Descricao          string   `gorm:"column:descricao;type:text" json:"descricao" validate:"min=10"`
	SpecsMinimas       *string  `gorm:"column:specs_minimas;type:text" json:"specs_minimas"`
	SpecsRecomendadas  *string  `gorm:"column:specs_recomendadas;type:text" json:"specs_recomendadas"`
	GuiaInstalacao     string   `gorm:"column:guia_instalacao;type:text" json:"guia_instalacao" validate:"min=10"`
	Tamanho            string   `gorm:"column:tamanho;type:varchar(50)" json:"tamanho" validate:"required"`
	Formato            string   `gorm:"column:formato;type:varchar(50)" json:"formato" validate:"required"`
	LinkDownload       string   `gorm:"column:link_download;type:varchar(1000)" json:"link_download" validate:"required,url"`
	Versao             *string  `gorm:"column:versao;type:varchar(50)" json:"versao"`
	Desenvolvedor      *string  `gorm:"column:desenvolvedor;type:varchar(200)" json:"desenvolvedor" validate:"omitempty,max=200"`
	Publisher          *string  `gorm:"column:publisher;type:varchar(200)" json:"publisher" validate:"omitempty,max=200"`
	SteamAppID         *string  `gorm:"column:steam_appid;type:varchar(20)" json:"steam_appid" validate:"omitempty,max=20"`
}

func (JogosContent) TableName() string          { return "thread_jogos_content" }
func (*JogosContent) Template() Template        { return TemplateJogos }
func (c *JogosContent) SetThreadID(id string)   { c.ThreadID = id }
func (c *JogosContent) applyDefaults()          {}
func (c *JogosContent) checkRules() *FieldError { return nil }

// SoftwareContent applications and tools
type SoftwareContent struct {
	ThreadID           string   `gorm:"column:thread_id;type:varchar(36);primaryKey" json:"-"`
	Nome               string   `gorm:"column:nome;type:varchar(200)" json:"nome" validate:"required,max=200"`
	Categoria          []string `gorm:"column:categoria;type:text;serializer:json" json:"categoria" validate:"min=1"`
	PosterURL          *string  `gorm:"column:poster_url;type:varchar(500)" json:"poster_url" validate:"omitempty,url"`
	Ano                *int     `gorm:"column:ano" json:"ano" validate:"omitempty,min=1970,max=2100"`
	SistemaOperacional []string `gorm:"column:sistema_operacional;type:text;serializer:json" json:"sistema_operacional" validate:"min=1"`
	Descricao          string   `gorm:"column:descricao;type:text" json:"descricao" validate:"min=10"`
	Requisitos         *string  `gorm:"column:requisitos;type:text" json:"requisitos"`
	GuiaInstalacao     string   `gorm:"column:guia_instalacao;type:text" json:"guia_instalacao" validate:"min=10"`
	Tamanho            string   `gorm:"column:tamanho;type:varchar(50)" json:"tamanho" validate:"required"`
	Formato            string   `gorm:"column:formato;type:varchar(50)" json:"formato" validate:"required"`
	LinkDownload       string   `gorm:"column:link_download;type:varchar(1000)" json:"link_download" validate:"required,url"`
	Versao             string   `gorm:"column:versao;type:varchar(50)" json:"versao" validate:"required"`
	Desenvolvedor      *string  `gorm:"column:desenvolvedor;type:varchar(200)" json:"desenvolvedor" validate:"omitempty,max=200"`
	Licenca            *string  `gorm:"column:licenca;type:varchar(100)" json:"licenca" validate:"omitempty,max=100"`
}

func (SoftwareContent) TableName() string          { return "thread_software_content" }
func (*SoftwareContent) Template() Template        { return TemplateSoftware }
func (c *SoftwareContent) SetThreadID(id string)   { c.ThreadID = id }
func (c *SoftwareContent) applyDefaults()          {}
func (c *SoftwareContent) checkRules() *FieldError { return nil }

// TorrentContent media distributed by magnet or .torrent file
type TorrentContent struct {
	ThreadID       string   `gorm:"column:thread_id;type:varchar(36);primaryKey" json:"-"`
	NomeConteudo   string   `gorm:"column:nome_conteudo;type:varchar(200)" json:"nome_conteudo" validate:"required,max=200"`
	PosterURL      *string  `gorm:"column:poster_url;type:varchar(500)" json:"poster_url" validate:"omitempty,url"`
	Genero         []string `gorm:"column:genero;type:text;serializer:json" json:"genero" validate:"min=1"`
	TrailerURL     *string  `gorm:"column:trailer_url;type:varchar(500)" json:"trailer_url" validate:"omitempty,url"`
	Elenco         []string `gorm:"column:elenco;type:text;serializer:json" json:"elenco"`
	Sinopse        string   `gorm:"column:sinopse;type:text" json:"sinopse" validate:"min=10"`
	Notas          *string  `gorm:"column:notas;type:text" json:"notas"`
	Tamanho        string   `gorm:"column:tamanho;type:varchar(50)" json:"tamanho" validate:"required"`
	Formato        []string `gorm:"column:formato;type:text;serializer:json" json:"formato" validate:"min=1"`
	MagnetLink     *string  `gorm:"column:magnet_link;type:text" json:"magnet_link"`
	TorrentFileURL *string  `gorm:"column:torrent_file_url;type:varchar(1000)" json:"torrent_file_url" validate:"omitempty,url"`
	Idiomas        []string `gorm:"column:idiomas;type:text;serializer:json" json:"idiomas" validate:"min=1"`
	Qualidade      *string  `gorm:"column:qualidade;type:varchar(50)" json:"qualidade"`
	Ano            *int     `gorm:"column:ano" json:"ano" validate:"omitempty,min=1800,max=2100"`
	Seeders        *int     `gorm:"column:seeders" json:"seeders" validate:"omitempty,min=0"`
	Leechers       *int     `gorm:"column:leechers" json:"leechers" validate:"omitempty,min=0"`
	TMDBID         *string  `gorm:"column:tmdb_id;type:varchar(50)" json:"tmdb_id" validate:"omitempty,max=50"`
}

func (TorrentContent) TableName() string        { return "thread_torrent_content" }
func (*TorrentContent) Template() Template      { return TemplateTorrent }
func (c *TorrentContent) SetThreadID(id string) { c.ThreadID = id }

func (c *TorrentContent) applyDefaults() {
	if c.Elenco == nil {
		c.Elenco = []string{}
	}
}

// checkRules requires at least one download link
func (c *TorrentContent) checkRules() *FieldError {
	if isBlank(c.MagnetLink) && isBlank(c.TorrentFileURL) {
		return &FieldError{Field: "magnet_link", Message: "Pelo menos um link (magnet ou arquivo torrent) é obrigatório"}
	}
	return nil
}

// PostagemContent plain discussion post
type PostagemContent struct {
	ThreadID string   `gorm:"column:thread_id;type:varchar(36);primaryKey" json:"-"`
	Conteudo string   `gorm:"column:conteudo;type:text" json:"conteudo" validate:"min=10"`
	Tags     []string `gorm:"column:tags;type:text;serializer:json" json:"tags"`
}

func (PostagemContent) TableName() string          { return "thread_postagem_content" }
func (*PostagemContent) Template() Template        { return TemplatePostagem }
func (c *PostagemContent) SetThreadID(id string)   { c.ThreadID = id }
func (c *PostagemContent) checkRules() *FieldError { return nil }

func (c *PostagemContent) applyDefaults() {
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// ThreadContentModels side-table models, for migrations
func ThreadContentModels() []interface{} {
	return []interface{}{&MidiaContent{}, &JogosContent{}, &SoftwareContent{}, &TorrentContent{}, &PostagemContent{}}
}

// ContentSearchText flattens the searchable text of a content value for indexing
func ContentSearchText(content ThreadContent) string {
	var parts []string
	add := func(s ...string) {
		for _, v := range s {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}
	switch c := content.(type) {
	case *MidiaContent:
		add(c.NomeConteudo, c.Sinopse)
		add(c.Genero...)
		add(c.Elenco...)
	case *JogosContent:
		add(c.Nome, c.Descricao)
		add(c.Estilo...)
	case *SoftwareContent:
		add(c.Nome, c.Descricao)
		add(c.Categoria...)
	case *TorrentContent:
		add(c.NomeConteudo, c.Sinopse)
		add(c.Genero...)
		add(c.Elenco...)
	case *PostagemContent:
		add(c.Conteudo)
		add(c.Tags...)
	}
	return strings.Join(parts, " ")
}
