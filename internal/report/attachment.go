package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxPhotoBytes 照片大小上限默认 5MB
const DefaultMaxPhotoBytes = 5 * 1024 * 1024

// Attachment 照片元数据。文件本身由存储服务保存，这里只记录引用。
type Attachment struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storage_key,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// PhotoInput 上传照片的元数据
type PhotoInput struct {
	ContentType string
	Size        int64
	StorageKey  string
	Caption     string
}

func checkPhoto(in PhotoInput, maxBytes int64) error {
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return ErrInvalidPhoto
	}
	if in.Size <= 0 {
		return ErrInvalidPhoto
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPhotoBytes
	}
	if in.Size > maxBytes {
		return ErrPhotoTooLarge
	}
	return nil
}

func newAttachment(in PhotoInput, name string, at time.Time) Attachment {
	return Attachment{
		ID:          uuid.NewString(),
		FileName:    name,
		ContentType: in.ContentType,
		Size:        in.Size,
		StorageKey:  in.StorageKey,
		Caption:     in.Caption,
		UploadedAt:  at,
	}
}

// photoPrefix 编号未分配前以会话 ID 前缀占位，定稿时重命名
func (s *Session) photoPrefix() string {
	if s.Number != "" {
		return s.Number
	}
	id := strings.ToUpper(strings.ReplaceAll(s.ID, "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return "RDO" + id
}

// ReportPhotoName 报告照片文件名: {编号}_{序号:4}.jpg
func ReportPhotoName(number string, seq int) string {
	return fmt.Sprintf("%s_%04d.jpg", number, seq)
}

// IncidentPhotoName 事件照片文件名: {编号}_{分类}_{序号:4}.jpg
func IncidentPhotoName(number string, c Classification, seq int) string {
	return fmt.Sprintf("%s_%s_%04d.jpg", number, c, seq)
}

// AddPhoto 添加报告照片
func (s *Session) AddPhoto(in PhotoInput, maxBytes int64, at time.Time) (Attachment, error) {
	if err := s.editable(); err != nil {
		return Attachment{}, err
	}
	if err := checkPhoto(in, maxBytes); err != nil {
		return Attachment{}, err
	}
	a := newAttachment(in, ReportPhotoName(s.photoPrefix(), len(s.Photos)+1), at)
	s.Photos = append(s.Photos, a)
	s.touch(at)
	return a, nil
}

// RemovePhoto 删除报告照片
func (s *Session) RemovePhoto(id string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	for i := range s.Photos {
		if s.Photos[i].ID == id {
			s.Photos = append(s.Photos[:i], s.Photos[i+1:]...)
			s.touch(at)
			return nil
		}
	}
	return ErrPhotoNotFound
}

// AddIncidentPhoto 添加事件照片
func (s *Session) AddIncidentPhoto(incidentID string, in PhotoInput, maxBytes int64, at time.Time) (Attachment, error) {
	if err := s.editable(); err != nil {
		return Attachment{}, err
	}
	inc, err := s.incident(incidentID)
	if err != nil {
		return Attachment{}, err
	}
	if err := checkPhoto(in, maxBytes); err != nil {
		return Attachment{}, err
	}
	class := inc.Classification
	if class == "" {
		class = ClassOccurrence
	}
	a := newAttachment(in, IncidentPhotoName(s.photoPrefix(), class, len(inc.Photos)+1), at)
	inc.Photos = append(inc.Photos, a)
	s.touch(at)
	return a, nil
}

// RemoveIncidentPhoto 删除事件照片
func (s *Session) RemoveIncidentPhoto(incidentID, photoID string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(incidentID)
	if err != nil {
		return err
	}
	for i := range inc.Photos {
		if inc.Photos[i].ID == photoID {
			inc.Photos = append(inc.Photos[:i], inc.Photos[i+1:]...)
			s.touch(at)
			return nil
		}
	}
	return ErrPhotoNotFound
}

// renamePhotos 编号变化后按当前前缀重命名所有照片
func (s *Session) renamePhotos() {
	prefix := s.photoPrefix()
	for i := range s.Photos {
		s.Photos[i].FileName = ReportPhotoName(prefix, i+1)
	}
	for i := range s.Incidents {
		inc := &s.Incidents[i]
		class := inc.Classification
		if class == "" {
			class = ClassOccurrence
		}
		for j := range inc.Photos {
			inc.Photos[j].FileName = IncidentPhotoName(prefix, class, j+1)
		}
	}
}
