package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foxzi/disparo/internal/client"
	"github.com/foxzi/disparo/internal/models"
	"github.com/foxzi/disparo/internal/notify"
)

// UploadExtensions are the accepted recipient file types
var UploadExtensions = []string{".txt", ".csv"}

// UploadForm is the input of a recipient list upload. The file holds one
// address per line or is a CSV with an "email" column.
type UploadForm struct {
	Name        string
	Description string
	Path        string
}

// Validate checks the name and the file type
func (f UploadForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name", "Informe o nome da lista")
	}
	if strings.TrimSpace(f.Path) == "" {
		return invalid("file", "Selecione um arquivo")
	}
	ext := strings.ToLower(filepath.Ext(f.Path))
	for _, allowed := range UploadExtensions {
		if ext == allowed {
			return nil
		}
	}
	return invalid("file", "O arquivo deve ser .txt ou .csv")
}

// ListUploader uploads recipient files. *client.Client implements it.
type ListUploader interface {
	UploadList(ctx context.Context, req *client.ListUploadRequest) (*models.List, error)
}

// SubmitUpload validates the form and streams the file to the service. The
// returned list is still processing.
func SubmitUpload(ctx context.Context, u ListUploader, f UploadForm, n notify.Notifier) (*models.List, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, invalid("file", fmt.Sprintf("Não foi possível abrir o arquivo: %v", err))
	}
	defer file.Close()

	list, err := u.UploadList(ctx, &client.ListUploadRequest{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		FileName:    filepath.Base(f.Path),
		File:        file,
	})
	if err != nil {
		n.Error("Falha ao fazer upload")
		return nil, fmt.Errorf("upload list: %w", err)
	}
	n.Success("Upload iniciado! A lista será processada em instantes.")
	return list, nil
}
