package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	noteDatamodel "github.com/caredesk/case-management/internal/core/datamodel/note"
	requestDatamodel "github.com/caredesk/case-management/internal/core/datamodel/request"
	userDatamodel "github.com/caredesk/case-management/internal/core/datamodel/user"
	"github.com/caredesk/case-management/internal/note"
)

func TestNoteRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "NoteRepository Suite")
}

var _ = Describe("NoteRepository", func() {
	var (
		db   *gorm.DB
		repo note.Repository
	)

	seedUser := func(email, firstName, lastName string) {
		err := db.Create(&userDatamodel.User{
			Email:        email,
			FirstName:    firstName,
			LastName:     lastName,
			PasswordHash: "x",
			UserType:     "employee",
		}).Error
		Expect(err).NotTo(HaveOccurred())
	}

	seedSupportRequest := func() int64 {
		row := &requestDatamodel.SupportRequest{
			UserEmail:   "patient@example.com",
			ServiceType: "social",
			Description: "housing support",
			Status:      "unassigned",
		}
		Expect(db.Create(row).Error).To(Succeed())
		return row.RequestID
	}

	addNote := func(requestType string, requestID int64, author, content string, createdAt time.Time) *note.Note {
		n := &note.Note{
			RequestType: requestType,
			RequestID:   requestID,
			AuthorEmail: author,
			Content:     content,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		Expect(repo.Create(n)).To(Succeed())
		return n
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&userDatamodel.User{},
			&requestDatamodel.SupportRequest{},
			&requestDatamodel.AnonymousRequest{},
			&noteDatamodel.RequestNote{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewNoteRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and GetByID", func() {
		It("assigns an id and reloads the note", func() {
			requestID := seedSupportRequest()
			n := addNote(note.RequestTypeSupport, requestID, "worker@example.com", "first contact made", time.Now())

			Expect(n.NoteID).NotTo(BeZero())

			loaded, err := repo.GetByID(n.NoteID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Content).To(Equal("first contact made"))
			Expect(loaded.AuthorEmail).To(Equal("worker@example.com"))
		})
	})

	Describe("ListForRequest", func() {
		It("returns the thread oldest first with joined author names", func() {
			seedUser("worker@example.com", "Eleni", "Georgiou")
			requestID := seedSupportRequest()

			base := time.Now().Add(-1 * time.Hour)
			addNote(note.RequestTypeSupport, requestID, "worker@example.com", "older note", base)
			addNote(note.RequestTypeSupport, requestID, "gone@example.com", "newer note", base.Add(10*time.Minute))

			notes, err := repo.ListForRequest(note.RequestTypeSupport, requestID)
			Expect(err).NotTo(HaveOccurred())
			Expect(notes).To(HaveLen(2))
			Expect(notes[0].Content).To(Equal("older note"))
			Expect(notes[1].Content).To(Equal("newer note"))

			Expect(notes[0].AuthorFirstName).NotTo(BeNil())
			Expect(*notes[0].AuthorFirstName).To(Equal("Eleni"))
			Expect(*notes[0].AuthorLastName).To(Equal("Georgiou"))

			// Author without a user row still lists, names stay empty.
			Expect(notes[1].AuthorFirstName).To(BeNil())
		})

		It("keeps the two request kinds apart even with equal ids", func() {
			requestID := seedSupportRequest()
			anon := &requestDatamodel.AnonymousRequest{
				FullName:       "Maria Papadopoulou",
				Mobile:         "6900000000",
				ServiceType:    "psychological",
				Description:    "phone intake",
				Status:         "unassigned",
				CreatedByEmail: "secretary@example.com",
			}
			Expect(db.Create(anon).Error).To(Succeed())

			addNote(note.RequestTypeSupport, requestID, "a@example.com", "on the support thread", time.Now())
			addNote(note.RequestTypeAnonymous, anon.RequestID, "b@example.com", "on the anonymous thread", time.Now())

			supportNotes, err := repo.ListForRequest(note.RequestTypeSupport, requestID)
			Expect(err).NotTo(HaveOccurred())
			Expect(supportNotes).To(HaveLen(1))
			Expect(supportNotes[0].Content).To(Equal("on the support thread"))

			anonNotes, err := repo.ListForRequest(note.RequestTypeAnonymous, anon.RequestID)
			Expect(err).NotTo(HaveOccurred())
			Expect(anonNotes).To(HaveLen(1))
			Expect(anonNotes[0].Content).To(Equal("on the anonymous thread"))
		})
	})

	Describe("UpdateContent", func() {
		It("rewrites content and the update timestamp", func() {
			requestID := seedSupportRequest()
			n := addNote(note.RequestTypeSupport, requestID, "worker@example.com", "draft", time.Now().Add(-time.Hour))

			editedAt := time.Now()
			Expect(repo.UpdateContent(n.NoteID, "final wording", editedAt)).To(Succeed())

			loaded, err := repo.GetByID(n.NoteID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Content).To(Equal("final wording"))
			Expect(loaded.UpdatedAt).To(BeTemporally("~", editedAt, time.Second))
		})
	})

	Describe("Delete", func() {
		It("removes the note", func() {
			requestID := seedSupportRequest()
			n := addNote(note.RequestTypeSupport, requestID, "worker@example.com", "to be removed", time.Now())

			Expect(repo.Delete(n.NoteID)).To(Succeed())

			_, err := repo.GetByID(n.NoteID)
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))
		})
	})

	Describe("RequestExists", func() {
		It("checks the table matching the request type", func() {
			requestID := seedSupportRequest()

			exists, err := repo.RequestExists(note.RequestTypeSupport, requestID)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = repo.RequestExists(note.RequestTypeAnonymous, requestID)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})
})
