package shipment

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType classifies a trade document
type DocumentType string

const (
	DocCommercialInvoice     DocumentType = "commercial_invoice"
	DocPackingList           DocumentType = "packing_list"
	DocCertificateOfOrigin   DocumentType = "certificate_of_origin"
	DocExportLicense         DocumentType = "export_license"
	DocCustomsDeclaration    DocumentType = "customs_declaration"
	DocBillOfLading          DocumentType = "bill_of_lading"
	DocAirwayBill            DocumentType = "airway_bill"
	DocInsuranceCertificate  DocumentType = "insurance_certificate"
	DocImportPermit          DocumentType = "import_permit"
	DocInspectionCertificate DocumentType = "inspection_certificate"
	DocDeliveryReceipt       DocumentType = "delivery_receipt"
	DocOther                 DocumentType = "other"
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case DocCommercialInvoice, DocPackingList, DocCertificateOfOrigin, DocExportLicense,
		DocCustomsDeclaration, DocBillOfLading, DocAirwayBill, DocInsuranceCertificate,
		DocImportPermit, DocInspectionCertificate, DocDeliveryReceipt, DocOther:
		return true
	}
	return false
}

// requiredDocuments is the static per-phase checklist
var requiredDocuments = map[Phase][]DocumentType{
	PhaseVendorToHost:     {DocCommercialInvoice, DocPackingList},
	PhaseHostToPort:       {DocExportLicense, DocCustomsDeclaration, DocCertificateOfOrigin},
	PhasePortToPort:       {DocBillOfLading, DocInsuranceCertificate},
	PhaseImportProcessing: {DocImportPermit, DocCustomsDeclaration},
	PhasePortToClient:     {DocDeliveryReceipt},
}

// RequiredDocuments returns the documents expected for phase p
func RequiredDocuments(p Phase) []DocumentType {
	return append([]DocumentType(nil), requiredDocuments[p]...)
}

// Document is an uploaded trade document. Verification fields may be overwritten
// by a later verification.
type Document struct {
	ID                uuid.UUID    `json:"id"`
	Type              DocumentType `json:"type"`
	Phase             Phase        `json:"phase"`
	FileName          string       `json:"file_name"`
	FileRef           string       `json:"file_ref"`
	DocumentNumber    string       `json:"document_number,omitempty"`
	IssuedBy          string       `json:"issued_by,omitempty"`
	UploadedBy        string       `json:"uploaded_by"`
	UploadedAt        time.Time    `json:"uploaded_at"`
	ExpiryDate        *time.Time   `json:"expiry_date,omitempty"`
	Verified          bool         `json:"verified"`
	VerifiedBy        string       `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time   `json:"verified_at,omitempty"`
	VerificationNotes string       `json:"verification_notes,omitempty"`
}

// IsExpired reports whether the document's expiry date has passed at now
func (d Document) IsExpired(now time.Time) bool {
	return d.ExpiryDate != nil && now.After(*d.ExpiryDate)
}

// DocumentInput is the upload command
type DocumentInput struct {
	Type           DocumentType
	Phase          Phase
	FileName       string
	FileRef        string
	DocumentNumber string
	IssuedBy       string
	ExpiryDate     *time.Time
	Actor          string
	At             time.Time
}

// StakeholderType classifies a party involved in a shipment
type StakeholderType string

const (
	StakeholderCustomer StakeholderType = "customer"
	StakeholderPlatform StakeholderType = "platform"
	StakeholderVendor   StakeholderType = "vendor"
	StakeholderCarrier  StakeholderType = "carrier"
	StakeholderBroker   StakeholderType = "customs_broker"
)

// Stakeholder is a contact participating in some phases of a shipment
type Stakeholder struct {
	Type    StakeholderType `json:"type"`
	Role    string          `json:"role"`
	Name    string          `json:"name"`
	Company string          `json:"company,omitempty"`
	Email   string          `json:"email,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Phases  []Phase         `json:"phases"`
}

// ParticipatesIn reports whether the stakeholder is involved in p
func (s Stakeholder) ParticipatesIn(p Phase) bool {
	for _, ph := range s.Phases {
		if ph == p {
			return true
		}
	}
	return false
}

// PlatformStakeholder is the export manager seeded on every shipment
func PlatformStakeholder() Stakeholder {
	return Stakeholder{
		Type:    StakeholderPlatform,
		Role:    "Export Management",
		Name:    "ExportExpress",
		Company: "ExportExpress India",
		Email:   "shipments@exportexpress.com",
		Phone:   "+91-9876543210",
		Phases:  append([]Phase(nil), Phases[:]...),
	}
}
