// Package models contains the universal entity/transaction data structures.
// A single set of tables represents arbitrary business objects and documents,
// driven by preset metadata instead of per-domain tables.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Entity status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// =============================================================================
// TENANCY
// =============================================================================

// Organization is the tenant-isolation boundary. Every row in the universal
// tables is partitioned by organization_id.
type Organization struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Settings  JSONB     `json:"settings" gorm:"type:jsonb;default:'{}'"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users    []User   `json:"users,omitempty" gorm:"foreignKey:OrganizationID"`
	Entities []Entity `json:"entities,omitempty" gorm:"foreignKey:OrganizationID"`
}

// User is a member of an organization. Roles feed preset permission checks
// and table column visibility; there is no session machinery here.
type User struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID      `json:"organization_id" gorm:"type:uuid;index"`
	Email          string         `json:"email" gorm:"not null;size:255"`
	PasswordHash   string         `json:"-" gorm:"size:255"`
	FullName       string         `json:"full_name" gorm:"size:200"`
	Roles          pq.StringArray `json:"roles" gorm:"type:text[]"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// =============================================================================
// UNIVERSAL ENTITY MODEL
// =============================================================================

// Entity is a generic, typed business object (customer, product, staff, ...).
// entity_type is a free-form discriminator; the shape of an entity's dynamic
// fields is defined externally by a preset, never by a per-type table.
type Entity struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;index;not null"`
	EntityType     string    `json:"entity_type" gorm:"not null;size:50;index"`
	EntityName     string    `json:"entity_name" gorm:"not null;size:255"`
	EntityCode     string    `json:"entity_code" gorm:"size:50"`
	SmartCode      string    `json:"smart_code" gorm:"size:100"`
	Status         string    `json:"status" gorm:"not null;size:30;default:'active'"`
	// Version is the optimistic-concurrency token. Updates must carry the
	// version they read; a stale version fails with a conflict.
	Version   int       `json:"version" gorm:"not null;default:1"`
	Metadata  JSONB     `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Organization  *Organization  `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	DynamicFields []DynamicField `json:"dynamic_fields,omitempty" gorm:"foreignKey:EntityID"`
}

// TableName maps Entity onto the universal entities table.
func (Entity) TableName() string { return "core_entities" }

// DynamicField is one typed attribute of an entity that is not captured by
// the fixed entity columns. field_name is unique per entity; writes upsert
// with last-write-wins. Exactly one of the value columns is populated,
// selected by field_type.
type DynamicField struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;index;not null"`
	EntityID       uuid.UUID  `json:"entity_id" gorm:"type:uuid;not null;uniqueIndex:idx_dynamic_entity_field,priority:1"`
	FieldName      string     `json:"field_name" gorm:"not null;size:100;uniqueIndex:idx_dynamic_entity_field,priority:2"`
	FieldType      string     `json:"field_type" gorm:"not null;size:20"`
	SmartCode      string     `json:"smart_code" gorm:"size:100"`
	ValueText      *string    `json:"value_text,omitempty"`
	ValueNumber    *float64   `json:"value_number,omitempty"`
	ValueBool      *bool      `json:"value_boolean,omitempty"`
	ValueDate      *time.Time `json:"value_date,omitempty"`
	ValueJSON      JSONB      `json:"value_json,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Entity *Entity `json:"entity,omitempty" gorm:"foreignKey:EntityID"`
}

// TableName maps DynamicField onto the universal dynamic data table.
func (DynamicField) TableName() string { return "core_dynamic_data" }

// Relationship is a typed directed edge between two entities of the same
// organization. Multiplicity per type is a preset concern, not enforced here.
type Relationship struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID   uuid.UUID `json:"organization_id" gorm:"type:uuid;index;not null"`
	FromEntityID     uuid.UUID `json:"from_entity_id" gorm:"type:uuid;index;not null"`
	ToEntityID       uuid.UUID `json:"to_entity_id" gorm:"type:uuid;index;not null"`
	RelationshipType string    `json:"relationship_type" gorm:"not null;size:50;index"`
	SmartCode        string    `json:"smart_code" gorm:"size:100"`
	CreatedAt        time.Time `json:"created_at"`

	// Relations
	FromEntity *Entity `json:"from_entity,omitempty" gorm:"foreignKey:FromEntityID"`
	ToEntity   *Entity `json:"to_entity,omitempty" gorm:"foreignKey:ToEntityID"`
}

// TableName maps Relationship onto the universal relationships table.
func (Relationship) TableName() string { return "core_relationships" }

// =============================================================================
// UNIVERSAL TRANSACTION MODEL
// =============================================================================

// Transaction is a business document header (order, invoice, ticket).
// transaction_type is explicit and authoritative; the smart code is an opaque
// classification tag and is never parsed for meaning.
type Transaction struct {
	ID                      uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID          uuid.UUID `json:"organization_id" gorm:"type:uuid;index;not null"`
	TransactionType         string    `json:"transaction_type" gorm:"not null;size:50;index"`
	TransactionCode         string    `json:"transaction_code" gorm:"size:50"`
	SmartCode               string    `json:"smart_code" gorm:"size:100"`
	TransactionDate         time.Time `json:"transaction_date" gorm:"not null;index"`
	TransactionCurrencyCode string    `json:"transaction_currency_code" gorm:"not null;size:3;default:'USD'"`
	TotalAmount             float64   `json:"total_amount" gorm:"type:numeric(15,2);not null;default:0"`
	Status                  string    `json:"status" gorm:"not null;size:30;default:'draft'"`
	Metadata                JSONB     `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`

	// Relations
	Lines []TransactionLine `json:"lines,omitempty" gorm:"foreignKey:TransactionID"`
}

// TableName maps Transaction onto the universal transactions table.
func (Transaction) TableName() string { return "universal_transactions" }

// TransactionLine is one itemized row of a transaction. line_number is
// 1-based and contiguous within its transaction. line_amount equals
// quantity × unit_amount except for override line types.
type TransactionLine struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;index;not null"`
	TransactionID  uuid.UUID  `json:"transaction_id" gorm:"type:uuid;not null;uniqueIndex:idx_txn_line_number,priority:1"`
	LineNumber     int        `json:"line_number" gorm:"not null;uniqueIndex:idx_txn_line_number,priority:2"`
	LineType       string     `json:"line_type" gorm:"not null;size:30;default:'item'"`
	EntityID       *uuid.UUID `json:"entity_id,omitempty" gorm:"type:uuid;index"`
	Description    string     `json:"description"`
	Quantity       float64    `json:"quantity" gorm:"type:numeric(15,4);not null;default:0"`
	UnitAmount     float64    `json:"unit_amount" gorm:"type:numeric(15,4);not null;default:0"`
	LineAmount     float64    `json:"line_amount" gorm:"type:numeric(15,2);not null;default:0"`
	SmartCode      string     `json:"smart_code" gorm:"size:100"`
	AccountID      *uuid.UUID `json:"account_id,omitempty" gorm:"type:uuid"`
	TaxCode        *string    `json:"tax_code,omitempty" gorm:"size:30"`
	TaxAmount      *float64   `json:"tax_amount,omitempty" gorm:"type:numeric(15,2)"`
	DiscountAmount *float64   `json:"discount_amount,omitempty" gorm:"type:numeric(15,2)"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations
	Transaction *Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
	Entity      *Entity      `json:"entity,omitempty" gorm:"foreignKey:EntityID"`
}

// TableName maps TransactionLine onto the universal transaction lines table.
func (TransactionLine) TableName() string { return "universal_transaction_lines" }

// =============================================================================
// FORM SPEC STORAGE
// =============================================================================

// FormSpecRecord stores a wizard form layout keyed by smart code. A nil
// organization_id marks a spec shared by all tenants.
type FormSpecRecord struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	SmartCode      string     `json:"smart_code" gorm:"not null;size:100;index"`
	Spec           JSONB      `json:"spec" gorm:"type:jsonb;not null"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName maps FormSpecRecord onto the form spec table.
func (FormSpecRecord) TableName() string { return "ucr_form_specs" }

// =============================================================================
// AUDIT MODEL
// =============================================================================

// AuditLog is an audit trail entry for entity and transaction mutations.
type AuditLog struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID      `json:"organization_id" gorm:"type:uuid;index;not null"`
	UserID         *uuid.UUID     `json:"user_id,omitempty" gorm:"type:uuid"`
	ObjectType     string         `json:"object_type" gorm:"not null;size:30;index"`
	ObjectID       uuid.UUID      `json:"object_id" gorm:"type:uuid;index"`
	Action         string         `json:"action" gorm:"not null;size:30"`
	OldValues      JSONB          `json:"old_values" gorm:"type:jsonb"`
	NewValues      JSONB          `json:"new_values" gorm:"type:jsonb"`
	ChangedFields  pq.StringArray `json:"changed_fields" gorm:"type:text[]"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
}

// TableName maps AuditLog onto the audit table.
func (AuditLog) TableName() string { return "core_audit_log" }
