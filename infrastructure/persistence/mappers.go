package persistence

import (
	"github.com/starscout/starscout/domain/job"
	"github.com/starscout/starscout/domain/star"
	"github.com/starscout/starscout/internal/database"
)

// repositoryMapper maps between star.Repository and RepositoryModel.
type repositoryMapper struct{}

func (repositoryMapper) ToDomain(entity RepositoryModel) star.Repository {
	// Star counts are listing-time metadata and are not persisted.
	candidate := star.NewRepoCandidate(
		entity.ID,
		entity.Owner,
		entity.Name,
		entity.Description,
		entity.HomepageURL,
		entity.Topics,
		0,
	)
	return star.ReconstructRepository(candidate, entity.ReadmeContent, entity.Embedding.Floats(), entity.UpdatedAt)
}

func (repositoryMapper) ToModel(domain star.Repository) RepositoryModel {
	candidate := domain.Candidate()
	return RepositoryModel{
		ID:            candidate.ID(),
		Owner:         candidate.Owner(),
		Name:          candidate.Name(),
		Description:   candidate.Description(),
		ReadmeContent: domain.Readme(),
		Topics:        candidate.Topics(),
		HomepageURL:   candidate.HomepageURL(),
		Embedding:     database.NewPgVector(domain.Embedding()),
		UpdatedAt:     domain.UpdatedAt(),
	}
}

// jobMapper maps between job.Job and UserJobModel.
type jobMapper struct{}

func (jobMapper) ToDomain(entity UserJobModel) job.Job {
	return job.ReconstructJob(
		entity.ID,
		entity.UserID,
		job.Status(entity.Status),
		entity.TotalRepos,
		entity.ProcessedRepos,
		entity.FailedRepos,
		entity.ErrorMessage,
		entity.CreatedAt,
		entity.UpdatedAt,
		entity.CompletedAt,
	)
}

func (jobMapper) ToModel(domain job.Job) UserJobModel {
	return UserJobModel{
		ID:             domain.ID(),
		UserID:         domain.UserID(),
		Status:         string(domain.Status()),
		TotalRepos:     domain.TotalRepos(),
		ProcessedRepos: domain.ProcessedRepos(),
		FailedRepos:    domain.FailedRepos(),
		ErrorMessage:   domain.ErrorMessage(),
		CreatedAt:      domain.CreatedAt(),
		UpdatedAt:      domain.UpdatedAt(),
		CompletedAt:    domain.CompletedAt(),
	}
}
