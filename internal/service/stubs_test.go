package service

import (
	"context"
	"errors"
	"testing"

	"pronet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint, uint) (*models.Post, error)
	getByUserIDFn func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	listFn        func(context.Context, int, int, uint) ([]*models.Post, error)
	updateFn      func(context.Context, *models.Post) error
	deleteFn      func(context.Context, uint) error
	isLikedFn     func(context.Context, uint, uint) (bool, error)
	likeFn        func(context.Context, uint, uint) error
	unlikeFn      func(context.Context, uint, uint) error
	countsFn      func(context.Context, uint, uint) (int, int, bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) Counts(ctx context.Context, postID, currentUserID uint) (int, int, bool, error) {
	return s.countsFn(ctx, postID, currentUserID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:     func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getByUserIDFn: func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		listFn:        func(_ context.Context, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		isLikedFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:        func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:      func(_ context.Context, _, _ uint) error { return nil },
		countsFn:      func(_ context.Context, _, _ uint) (int, int, bool, error) { return 0, 0, false, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	getByPostIDFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	updateFn      func(context.Context, *models.Comment) error
	deleteFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetByPostID(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.getByPostIDFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		getByPostIDFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	deleteFn     func(context.Context, uint) error
	listFn       func(context.Context, int, int) ([]models.User, error)
	searchFn     func(context.Context, string, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, query, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return &models.User{ID: 1}, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
		updateFn:     func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		listFn:       func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		searchFn:     func(_ context.Context, _ string, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// connRepoStub is a stub for repository.ConnectionRepository.
type connRepoStub struct {
	createFn            func(context.Context, *models.Connection) error
	getByIDFn           func(context.Context, uint) (*models.Connection, error)
	getBetweenUsersFn   func(context.Context, uint, uint) (*models.Connection, error)
	getAcceptedFn       func(context.Context, uint) ([]models.Connection, error)
	getConnectedUsersFn func(context.Context, uint) ([]models.User, error)
	getPendingFn        func(context.Context, uint) ([]models.Connection, error)
	getSentFn           func(context.Context, uint) ([]models.Connection, error)
	updateStatusFn      func(context.Context, uint, models.ConnectionStatus) error
	deleteFn            func(context.Context, uint) error
}

func (s *connRepoStub) Create(ctx context.Context, conn *models.Connection) error {
	return s.createFn(ctx, conn)
}
func (s *connRepoStub) GetByID(ctx context.Context, id uint) (*models.Connection, error) {
	return s.getByIDFn(ctx, id)
}
func (s *connRepoStub) GetBetweenUsers(ctx context.Context, a, b uint) (*models.Connection, error) {
	return s.getBetweenUsersFn(ctx, a, b)
}
func (s *connRepoStub) GetAccepted(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.getAcceptedFn(ctx, userID)
}
func (s *connRepoStub) GetConnectedUsers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getConnectedUsersFn(ctx, userID)
}
func (s *connRepoStub) GetPendingRequests(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.getPendingFn(ctx, userID)
}
func (s *connRepoStub) GetSentRequests(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.getSentFn(ctx, userID)
}
func (s *connRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ConnectionStatus) error {
	return s.updateStatusFn(ctx, id, status)
}
func (s *connRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopConnRepo() *connRepoStub {
	return &connRepoStub{
		createFn:            func(_ context.Context, _ *models.Connection) error { return nil },
		getByIDFn:           func(_ context.Context, id uint) (*models.Connection, error) { return &models.Connection{ID: id}, nil },
		getBetweenUsersFn:   func(_ context.Context, _, _ uint) (*models.Connection, error) { return nil, nil },
		getAcceptedFn:       func(_ context.Context, _ uint) ([]models.Connection, error) { return nil, nil },
		getConnectedUsersFn: func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		getPendingFn:        func(_ context.Context, _ uint) ([]models.Connection, error) { return nil, nil },
		getSentFn:           func(_ context.Context, _ uint) ([]models.Connection, error) { return nil, nil },
		updateStatusFn:      func(_ context.Context, _ uint, _ models.ConnectionStatus) error { return nil },
		deleteFn:            func(_ context.Context, _ uint) error { return nil },
	}
}

// chatRepoStub is a stub for repository.ChatRepository.
type chatRepoStub struct {
	createConversationFn     func(context.Context, uint, []uint) (*models.Conversation, error)
	findDirectConversationFn func(context.Context, uint, uint) (*models.Conversation, error)
	getConversationFn        func(context.Context, uint) (*models.Conversation, error)
	getUserConversationsFn   func(context.Context, uint) ([]*models.Conversation, error)
	isParticipantFn          func(context.Context, uint, uint) (bool, error)
	createMessageFn          func(context.Context, *models.Message) error
	getMessagesFn            func(context.Context, uint, int, int) ([]*models.Message, error)
	updateMessageFn          func(context.Context, uint, uint, string) (*models.Message, error)
	deleteMessageFn          func(context.Context, uint, uint) error
	markConversationReadFn   func(context.Context, uint, uint) (int64, error)
	unreadCountFn            func(context.Context, uint, uint) (int64, error)
}

func (s *chatRepoStub) CreateConversationWithParticipants(ctx context.Context, createdBy uint, participantIDs []uint) (*models.Conversation, error) {
	return s.createConversationFn(ctx, createdBy, participantIDs)
}
func (s *chatRepoStub) FindDirectConversation(ctx context.Context, a, b uint) (*models.Conversation, error) {
	return s.findDirectConversationFn(ctx, a, b)
}
func (s *chatRepoStub) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	return s.getConversationFn(ctx, id)
}
func (s *chatRepoStub) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.getUserConversationsFn(ctx, userID)
}
func (s *chatRepoStub) IsParticipant(ctx context.Context, convID, userID uint) (bool, error) {
	return s.isParticipantFn(ctx, convID, userID)
}
func (s *chatRepoStub) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.createMessageFn(ctx, msg)
}
func (s *chatRepoStub) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	return s.getMessagesFn(ctx, convID, limit, offset)
}
func (s *chatRepoStub) UpdateMessage(ctx context.Context, msgID, senderID uint, content string) (*models.Message, error) {
	return s.updateMessageFn(ctx, msgID, senderID, content)
}
func (s *chatRepoStub) DeleteMessage(ctx context.Context, msgID, senderID uint) error {
	return s.deleteMessageFn(ctx, msgID, senderID)
}
func (s *chatRepoStub) MarkConversationRead(ctx context.Context, convID, userID uint) (int64, error) {
	return s.markConversationReadFn(ctx, convID, userID)
}
func (s *chatRepoStub) UnreadCount(ctx context.Context, convID, userID uint) (int64, error) {
	return s.unreadCountFn(ctx, convID, userID)
}

func noopChatRepo() *chatRepoStub {
	return &chatRepoStub{
		createConversationFn: func(_ context.Context, createdBy uint, _ []uint) (*models.Conversation, error) {
			return &models.Conversation{ID: 1, CreatedBy: createdBy}, nil
		},
		findDirectConversationFn: func(_ context.Context, _, _ uint) (*models.Conversation, error) { return nil, nil },
		getConversationFn: func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id}, nil
		},
		getUserConversationsFn: func(_ context.Context, _ uint) ([]*models.Conversation, error) { return nil, nil },
		isParticipantFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		createMessageFn:        func(_ context.Context, _ *models.Message) error { return nil },
		getMessagesFn:          func(_ context.Context, _ uint, _, _ int) ([]*models.Message, error) { return nil, nil },
		updateMessageFn: func(_ context.Context, msgID, _ uint, content string) (*models.Message, error) {
			return &models.Message{ID: msgID, Content: content}, nil
		},
		deleteMessageFn:        func(_ context.Context, _, _ uint) error { return nil },
		markConversationReadFn: func(_ context.Context, _, _ uint) (int64, error) { return 0, nil },
		unreadCountFn:          func(_ context.Context, _, _ uint) (int64, error) { return 0, nil },
	}
}

// projectRepoStub is a stub for repository.ProjectRepository.
type projectRepoStub struct {
	createFn      func(context.Context, *models.Project) error
	getByIDFn     func(context.Context, uint) (*models.Project, error)
	getByUserIDFn func(context.Context, uint) ([]models.Project, error)
	updateFn      func(context.Context, *models.Project) error
	deleteFn      func(context.Context, uint, uint) error
}

func (s *projectRepoStub) Create(ctx context.Context, project *models.Project) error {
	return s.createFn(ctx, project)
}
func (s *projectRepoStub) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	return s.getByIDFn(ctx, id)
}
func (s *projectRepoStub) GetByUserID(ctx context.Context, userID uint) ([]models.Project, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *projectRepoStub) Update(ctx context.Context, project *models.Project) error {
	return s.updateFn(ctx, project)
}
func (s *projectRepoStub) Delete(ctx context.Context, id, userID uint) error {
	return s.deleteFn(ctx, id, userID)
}

func noopProjectRepo() *projectRepoStub {
	return &projectRepoStub{
		createFn:      func(_ context.Context, _ *models.Project) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Project, error) { return &models.Project{ID: id}, nil },
		getByUserIDFn: func(_ context.Context, _ uint) ([]models.Project, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Project) error { return nil },
		deleteFn:      func(_ context.Context, _, _ uint) error { return nil },
	}
}

// skillRepoStub is a stub for repository.SkillRepository.
type skillRepoStub struct {
	findOrCreateFn    func(context.Context, string) (*models.Skill, error)
	listFn            func(context.Context) ([]models.Skill, error)
	getUserSkillsFn   func(context.Context, uint) ([]models.Skill, error)
	addUserSkillFn    func(context.Context, uint, uint) error
	removeUserSkillFn func(context.Context, uint, uint) error
}

func (s *skillRepoStub) FindOrCreate(ctx context.Context, name string) (*models.Skill, error) {
	return s.findOrCreateFn(ctx, name)
}
func (s *skillRepoStub) List(ctx context.Context) ([]models.Skill, error) {
	return s.listFn(ctx)
}
func (s *skillRepoStub) GetUserSkills(ctx context.Context, userID uint) ([]models.Skill, error) {
	return s.getUserSkillsFn(ctx, userID)
}
func (s *skillRepoStub) AddUserSkill(ctx context.Context, userID, skillID uint) error {
	return s.addUserSkillFn(ctx, userID, skillID)
}
func (s *skillRepoStub) RemoveUserSkill(ctx context.Context, userID, skillID uint) error {
	return s.removeUserSkillFn(ctx, userID, skillID)
}

func noopSkillRepo() *skillRepoStub {
	return &skillRepoStub{
		findOrCreateFn:    func(_ context.Context, name string) (*models.Skill, error) { return &models.Skill{ID: 1, Name: name}, nil },
		listFn:            func(_ context.Context) ([]models.Skill, error) { return nil, nil },
		getUserSkillsFn:   func(_ context.Context, _ uint) ([]models.Skill, error) { return nil, nil },
		addUserSkillFn:    func(_ context.Context, _, _ uint) error { return nil },
		removeUserSkillFn: func(_ context.Context, _, _ uint) error { return nil },
	}
}

// jobRepoStub is a stub for repository.JobRepository.
type jobRepoStub struct {
	createFn        func(context.Context, *models.JobHistory) error
	getByIDFn       func(context.Context, uint) (*models.JobHistory, error)
	getByUserIDFn   func(context.Context, uint) ([]models.JobHistory, error)
	addFeedbackFn   func(context.Context, *models.Feedback) error
	averageRatingFn func(context.Context, uint) (float64, int64, error)
}

func (s *jobRepoStub) Create(ctx context.Context, job *models.JobHistory) error {
	return s.createFn(ctx, job)
}
func (s *jobRepoStub) GetByID(ctx context.Context, id uint) (*models.JobHistory, error) {
	return s.getByIDFn(ctx, id)
}
func (s *jobRepoStub) GetByUserID(ctx context.Context, userID uint) ([]models.JobHistory, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *jobRepoStub) AddFeedback(ctx context.Context, feedback *models.Feedback) error {
	return s.addFeedbackFn(ctx, feedback)
}
func (s *jobRepoStub) AverageRating(ctx context.Context, userID uint) (float64, int64, error) {
	return s.averageRatingFn(ctx, userID)
}

func noopJobRepo() *jobRepoStub {
	return &jobRepoStub{
		createFn:        func(_ context.Context, _ *models.JobHistory) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.JobHistory, error) { return &models.JobHistory{ID: id}, nil },
		getByUserIDFn:   func(_ context.Context, _ uint) ([]models.JobHistory, error) { return nil, nil },
		addFeedbackFn:   func(_ context.Context, _ *models.Feedback) error { return nil },
		averageRatingFn: func(_ context.Context, _ uint) (float64, int64, error) { return 0, 0, nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

// assertConflictError asserts that err is an AppError with code CONFLICT.
func assertConflictError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "CONFLICT", appErr.Code)
}
