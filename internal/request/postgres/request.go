package postgres

import (
	"time"

	"gorm.io/gorm"

	requestDatamodel "github.com/caredesk/case-management/internal/core/datamodel/request"
	"github.com/caredesk/case-management/internal/request"
)

// RequestRepository implements request.Repository using GORM.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) request.Repository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) CreateSupport(req *request.SupportRequest) error {
	row := request.SupportToDataModel(req)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	req.RequestID = row.RequestID
	return nil
}

func (r *RequestRepository) GetSupportByID(id int64) (*request.SupportRequest, error) {
	var row requestDatamodel.SupportRequest
	err := r.db.Where("request_id = ?", id).First(&row).Error
	if err != nil {
		return nil, err
	}
	return request.SupportFromDataModel(&row), nil
}

func (r *RequestRepository) ListAllSupport() ([]*request.SupportRequest, error) {
	var rows []*requestDatamodel.SupportRequest
	err := r.db.Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return request.SupportFromDataModelSlice(rows), nil
}

func (r *RequestRepository) ListSupportByServiceType(serviceType string) ([]*request.SupportRequest, error) {
	var rows []*requestDatamodel.SupportRequest
	err := r.db.Where("service_type = ?", serviceType).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return request.SupportFromDataModelSlice(rows), nil
}

func (r *RequestRepository) ListSupportByOwner(email string) ([]*request.SupportRequest, error) {
	var rows []*requestDatamodel.SupportRequest
	err := r.db.Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return request.SupportFromDataModelSlice(rows), nil
}

func (r *RequestRepository) ListSupportByAssignee(email string) ([]*request.SupportRequest, error) {
	var rows []*requestDatamodel.SupportRequest
	err := r.db.Where("assigned_employee_email = ?", email).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return request.SupportFromDataModelSlice(rows), nil
}

func (r *RequestRepository) UpdateSupportAssignment(id int64, employeeEmail string, updatedAt time.Time) error {
	return r.db.Model(&requestDatamodel.SupportRequest{}).
		Where("request_id = ?", id).
		Updates(map[string]interface{}{
			"assigned_employee_email": employeeEmail,
			"status":                  request.StatusAssigned,
			"updated_at":              updatedAt,
		}).Error
}

func (r *RequestRepository) UpdateSupportStatus(id int64, status string, updatedAt time.Time) error {
	return r.db.Model(&requestDatamodel.SupportRequest{}).
		Where("request_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

func (r *RequestRepository) DeleteSupport(id int64) error {
	return r.db.Where("request_id = ?", id).
		Delete(&requestDatamodel.SupportRequest{}).Error
}

func (r *RequestRepository) CreateAnonymous(req *request.AnonymousRequest) error {
	row := request.AnonymousToDataModel(req)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	req.RequestID = row.RequestID
	return nil
}

// anonymousRow carries the request columns plus the joined display names.
type anonymousRow struct {
	requestDatamodel.AnonymousRequest
	AssignedEmployeeFirstName *string
	AssignedEmployeeLastName  *string
	CreatedByFirstName        *string
	CreatedByLastName         *string
	Total                     int64
}

const anonymousSelect = `
	SELECT ar.*,
	       ae.first_name AS assigned_employee_first_name,
	       ae.last_name  AS assigned_employee_last_name,
	       cb.first_name AS created_by_first_name,
	       cb.last_name  AS created_by_last_name`

func (r *RequestRepository) GetAnonymousByID(id int64) (*request.AnonymousRequest, error) {
	query := anonymousSelect + `
	  FROM anonymous_requests ar
	  LEFT JOIN users ae ON ae.email = ar.assigned_employee_email
	  LEFT JOIN users cb ON cb.email = ar.created_by_email
	 WHERE ar.request_id = ?`

	var row anonymousRow
	if err := r.db.Raw(query, id).Take(&row).Error; err != nil {
		return nil, err
	}
	return anonymousFromRow(&row), nil
}

// ListAnonymous pages through anonymous requests newest first, carrying the
// total match count in every row via a window function.
func (r *RequestRepository) ListAnonymous(status string, limit, offset int) ([]*request.AnonymousRequest, int64, error) {
	query := anonymousSelect + `,
	       COUNT(*) OVER() AS total
	  FROM anonymous_requests ar
	  LEFT JOIN users ae ON ae.email = ar.assigned_employee_email
	  LEFT JOIN users cb ON cb.email = ar.created_by_email`

	args := []interface{}{}
	if status != "" {
		query += ` WHERE ar.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY ar.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []*anonymousRow
	if err := r.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	var total int64
	requests := make([]*request.AnonymousRequest, len(rows))
	for i, row := range rows {
		requests[i] = anonymousFromRow(row)
		total = row.Total
	}

	if len(rows) == 0 {
		// Past the last page; count separately so meta stays correct.
		countQuery := r.db.Model(&requestDatamodel.AnonymousRequest{})
		if status != "" {
			countQuery = countQuery.Where("status = ?", status)
		}
		if err := countQuery.Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	return requests, total, nil
}

func (r *RequestRepository) UpdateAnonymousAssignment(id int64, employeeEmail string, updatedAt time.Time) error {
	return r.db.Model(&requestDatamodel.AnonymousRequest{}).
		Where("request_id = ?", id).
		Updates(map[string]interface{}{
			"assigned_employee_email": employeeEmail,
			"status":                  request.StatusAssigned,
			"updated_at":              updatedAt,
		}).Error
}

func (r *RequestRepository) UpdateAnonymousStatus(id int64, status string, updatedAt time.Time) error {
	return r.db.Model(&requestDatamodel.AnonymousRequest{}).
		Where("request_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

func (r *RequestRepository) UpdateAnonymousNotes(id int64, notes string, updatedAt time.Time) error {
	return r.db.Model(&requestDatamodel.AnonymousRequest{}).
		Where("request_id = ?", id).
		Updates(map[string]interface{}{
			"notes_from_employee": notes,
			"updated_at":          updatedAt,
		}).Error
}

func (r *RequestRepository) DeleteAnonymous(id int64) error {
	return r.db.Where("request_id = ?", id).
		Delete(&requestDatamodel.AnonymousRequest{}).Error
}

func (r *RequestRepository) UserExists(email string) (bool, error) {
	var count int64
	err := r.db.Table("users").Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func anonymousFromRow(row *anonymousRow) *request.AnonymousRequest {
	req := request.AnonymousFromDataModel(&row.AnonymousRequest)
	req.AssignedEmployeeFirstName = row.AssignedEmployeeFirstName
	req.AssignedEmployeeLastName = row.AssignedEmployeeLastName
	req.CreatedByFirstName = row.CreatedByFirstName
	req.CreatedByLastName = row.CreatedByLastName
	return req
}
