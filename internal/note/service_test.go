package note_test

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/core/events"
	"github.com/caredesk/case-management/internal/note"
)

func TestNoteService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Note Service Suite")
}

// Mock repository for testing
type mockNoteRepository struct {
	notes    map[int64]*note.Note
	requests map[string]bool
	nextID   int64
}

func newMockNoteRepository() *mockNoteRepository {
	return &mockNoteRepository{
		notes:    make(map[int64]*note.Note),
		requests: make(map[string]bool),
		nextID:   1,
	}
}

func (m *mockNoteRepository) seedRequest(requestType string, requestID int64) {
	m.requests[key(requestType, requestID)] = true
}

func key(requestType string, requestID int64) string {
	return fmt.Sprintf("%s:%d", requestType, requestID)
}

func (m *mockNoteRepository) Create(n *note.Note) error {
	n.NoteID = m.nextID
	m.nextID++
	m.notes[n.NoteID] = n
	return nil
}

func (m *mockNoteRepository) GetByID(noteID int64) (*note.Note, error) {
	n, exists := m.notes[noteID]
	if !exists {
		return nil, errors.New("note not found")
	}
	return n, nil
}

func (m *mockNoteRepository) ListForRequest(requestType string, requestID int64) ([]*note.Note, error) {
	result := []*note.Note{}
	for _, n := range m.notes {
		if n.RequestType == requestType && n.RequestID == requestID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *mockNoteRepository) UpdateContent(noteID int64, content string, updatedAt time.Time) error {
	n := m.notes[noteID]
	n.Content = content
	n.UpdatedAt = updatedAt
	return nil
}

func (m *mockNoteRepository) Delete(noteID int64) error {
	delete(m.notes, noteID)
	return nil
}

func (m *mockNoteRepository) RequestExists(requestType string, requestID int64) (bool, error) {
	return m.requests[key(requestType, requestID)], nil
}

var _ = Describe("NoteService", func() {
	var (
		mockRepo    *mockNoteRepository
		noteService *note.Service
	)

	author := &auth.Access{Email: "author@example.com", Roles: []string{auth.RoleSocialWorker}}
	admin := &auth.Access{Email: "admin@example.com", Roles: []string{auth.RoleAdmin}}

	BeforeEach(func() {
		mockRepo = newMockNoteRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		noteService = note.NewService(mockRepo, bus, logger)
	})

	Describe("Add", func() {
		BeforeEach(func() {
			mockRepo.seedRequest(note.RequestTypeSupport, 1)
		})

		It("attaches a note to an existing request", func() {
			n, err := noteService.Add("author@example.com", note.RequestTypeSupport, 1, note.CreateNoteDTO{
				Content: "first contact made",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(n.NoteID).To(Equal(int64(1)))
			Expect(n.AuthorEmail).To(Equal("author@example.com"))
		})

		It("fails for a missing request", func() {
			_, err := noteService.Add("author@example.com", note.RequestTypeSupport, 9, note.CreateNoteDTO{
				Content: "orphan",
			})

			Expect(err).To(Equal(internal.ErrRequestNotFound))
		})

		It("rejects blank content", func() {
			_, err := noteService.Add("author@example.com", note.RequestTypeSupport, 1, note.CreateNoteDTO{
				Content: "   ",
			})

			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown request type", func() {
			_, err := noteService.Add("author@example.com", "ticket", 1, note.CreateNoteDTO{
				Content: "hello",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Edit", func() {
		BeforeEach(func() {
			mockRepo.seedRequest(note.RequestTypeSupport, 1)
			_, err := noteService.Add("author@example.com", note.RequestTypeSupport, 1, note.CreateNoteDTO{Content: "v1"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the author edit", func() {
			n, err := noteService.Edit(author, 1, note.UpdateNoteDTO{Content: "v2"})

			Expect(err).NotTo(HaveOccurred())
			Expect(n.Content).To(Equal("v2"))
		})

		It("denies everyone else, admins included", func() {
			_, err := noteService.Edit(admin, 1, note.UpdateNoteDTO{Content: "v2"})

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotNoteAuthor))
		})

		It("fails for a missing note", func() {
			_, err := noteService.Edit(author, 42, note.UpdateNoteDTO{Content: "v2"})

			Expect(err).To(Equal(internal.ErrNoteNotFound))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			mockRepo.seedRequest(note.RequestTypeAnonymous, 1)
			_, err := noteService.Add("author@example.com", note.RequestTypeAnonymous, 1, note.CreateNoteDTO{Content: "v1"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets an admin delete", func() {
			Expect(noteService.Delete(admin, 1)).To(Succeed())
			Expect(mockRepo.notes).To(BeEmpty())
		})

		It("denies the author without the admin role", func() {
			err := noteService.Delete(author, 1)

			Expect(err).To(HaveOccurred())
			appErr, ok := err.(*internal.AppError)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAdminOnly))
		})

		It("fails for a missing note", func() {
			Expect(noteService.Delete(admin, 42)).To(Equal(internal.ErrNoteNotFound))
		})
	})

	Describe("List", func() {
		It("fails for a missing request", func() {
			_, err := noteService.List(note.RequestTypeSupport, 7)

			Expect(err).To(Equal(internal.ErrRequestNotFound))
		})

		It("returns the request's notes", func() {
			mockRepo.seedRequest(note.RequestTypeSupport, 1)
			_, err := noteService.Add("author@example.com", note.RequestTypeSupport, 1, note.CreateNoteDTO{Content: "a"})
			Expect(err).NotTo(HaveOccurred())
			_, err = noteService.Add("other@example.com", note.RequestTypeSupport, 1, note.CreateNoteDTO{Content: "b"})
			Expect(err).NotTo(HaveOccurred())

			notes, err := noteService.List(note.RequestTypeSupport, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(notes).To(HaveLen(2))
		})
	})
})
