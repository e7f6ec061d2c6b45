package models

import "time"

// ===== PAGINATION =====

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse builds the page envelope. page is 1-based.
func NewPaginatedResponse(content interface{}, numberOfElements int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page <= 1,
		Last:             page >= totalPages,
		NumberOfElements: numberOfElements,
		Empty:            numberOfElements == 0,
	}
}

// ===== DASHBOARD =====

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DashboardStats struct {
	CoursesByStatus       map[CourseStatus]int64       `json:"courses_by_status"`
	RegistrationsByStatus map[RegistrationStatus]int64 `json:"registrations_by_status"`
	TotalStudents         int64                        `json:"total_students"`
	TotalCategories       int64                        `json:"total_categories"`
	ActiveTestimonials    int64                        `json:"active_testimonials"`
	TotalRevenue          float64                      `json:"total_revenue"`
	RecentRegistrations   []Registration               `json:"recent_registrations"`
	GeneratedAt           time.Time                    `json:"generated_at"`
}

// ===== STATUS CHANGES =====

type StatusChangeResponse struct {
	ID        uint      `json:"id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy uint      `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
