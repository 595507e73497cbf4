package entity

import "time"

// 公开范围
const (
	AccessTypePublic     = "public"
	AccessTypeRestricted = "restricted"
)

// Document 公文
// FilePath 为原始上传件，流转期间不可变；
// CurrentFilePath 始终指向最新一次合成产出的修订版。
type Document struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Code        string         `json:"code" gorm:"size:50"`
	Title       string         `json:"title" gorm:"size:200;not null"`
	Status      DocumentStatus `json:"status" gorm:"size:32;not null;default:'draft'"`
	CurrentStep int            `json:"current_step" gorm:"not null;default:0"`

	FilePath        string `json:"file_path" gorm:"size:500;not null"`
	CurrentFilePath string `json:"current_file_path" gorm:"size:500"`

	SubmittedBy string     `json:"submitted_by" gorm:"size:36;not null"`
	IsPublic    bool       `json:"is_public" gorm:"default:false"`
	AccessType  string     `json:"access_type" gorm:"size:20"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Records   []ApprovalRecord `json:"records,omitempty" gorm:"foreignKey:DocumentID"`
	Submitter *User            `json:"submitter,omitempty" gorm:"foreignKey:SubmittedBy"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentViewer 公文可见人（分发/归档时附加，幂等）
type DocumentViewer struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	DocumentID string    `json:"document_id" gorm:"size:36;not null;index:idx_doc_viewer,unique"`
	UserID     string    `json:"user_id" gorm:"size:36;not null;index:idx_doc_viewer,unique"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DocumentViewer) TableName() string {
	return "document_viewers"
}
