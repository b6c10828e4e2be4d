package service

import (
	"fmt"
	"strings"
	"time"

	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/notify"
	"crm-pipeline/pkg/utils"
)

// TaskService 任务始终以 assignee 为 scope；创建时给创建人发通知邮件
// （best-effort，发送失败不影响请求）
type TaskService struct {
	tasks domain.TaskRepository
	opps  domain.OpportunityRepository
	users domain.UserRepository
	mail  notify.Sender
}

func NewTaskService(tasks domain.TaskRepository, opps domain.OpportunityRepository, users domain.UserRepository, mail notify.Sender) *TaskService {
	return &TaskService{tasks: tasks, opps: opps, users: users, mail: mail}
}

type CreateTaskInput struct {
	OpportunityID string
	Title         string
	DueDate       time.Time
	Priority      string
}

type TaskPatch struct {
	Title     *string
	DueDate   *time.Time
	Completed *bool
	Priority  *string
}

func (s *TaskService) Create(actor domain.Principal, in CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Invalid("title", "required")
	}
	if in.DueDate.IsZero() {
		return nil, domain.Invalid("dueDate", "required")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, domain.Invalid("priority", "must be LOW, MEDIUM or HIGH")
	}
	opp, err := s.opps.FindByID(in.OpportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, domain.Referential("opportunity %s does not exist", in.OpportunityID)
	}

	t := &domain.Task{
		ID:            utils.NewID(),
		OpportunityID: opp.ID,
		AssignedToID:  actor.ID,
		Title:         in.Title,
		DueDate:       in.DueDate,
		Priority:      priority,
	}
	if err := s.tasks.Create(t); err != nil {
		return nil, err
	}

	if u, err := s.users.FindByID(actor.ID); err == nil && u != nil {
		s.mail.Send(u.Email,
			"New task: "+t.Title,
			fmt.Sprintf("A new task was created on the CRM.\nDue: %s\nPriority: %s",
				t.DueDate.Format("2006-01-02 15:04"), t.Priority))
	}
	return t, nil
}

func (s *TaskService) List(actor domain.Principal, opportunityID string, offset, limit int) ([]domain.Task, int64, error) {
	return s.tasks.ListForUser(actor.ID, opportunityID, offset, limit)
}

func (s *TaskService) Update(actor domain.Principal, id string, p TaskPatch) (*domain.Task, error) {
	t, err := s.findOwn(actor, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, domain.Invalid("title", "required")
		}
		t.Title = *p.Title
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		if !domain.ValidPriority(*p.Priority) {
			return nil, domain.Invalid("priority", "must be LOW, MEDIUM or HIGH")
		}
		t.Priority = *p.Priority
	}
	if err := s.tasks.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(actor domain.Principal, id string) error {
	if _, err := s.findOwn(actor, id); err != nil {
		return err
	}
	return s.tasks.Delete(id)
}

func (s *TaskService) findOwn(actor domain.Principal, id string) (*domain.Task, error) {
	t, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.AssignedToID != actor.ID {
		return nil, domain.NotFound("task", id)
	}
	return t, nil
}
